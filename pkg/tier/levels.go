package tier

import "fmt"

// MediaTier is the content tier of a record, 0 through 4.
type MediaTier int

const (
	MediaT0 MediaTier = iota
	MediaT1
	MediaT2
	MediaT3
	MediaT4
)

// T3 and T4 share level 3. T4 stays a separate label for reporting.
var mediaLevels = [...]int{0, 1, 2, 3, 3}

// MediaTiers lists every content tier in ascending label order.
var MediaTiers = []MediaTier{MediaT0, MediaT1, MediaT2, MediaT3, MediaT4}

func (t MediaTier) Level() int {
	if t < MediaT0 || t > MediaT4 {
		return 0
	}
	return mediaLevels[t]
}

func (t MediaTier) Label() string {
	if t < MediaT0 || t > MediaT4 {
		return "0"
	}
	return fmt.Sprintf("%d", int(t))
}

func (t MediaTier) String() string { return "T" + t.Label() }

// ParseMediaTier resolves a content tier label such as "3".
func ParseMediaTier(label string) (MediaTier, error) {
	for _, t := range MediaTiers {
		if t.Label() == label {
			return t, nil
		}
	}
	return MediaT0, fmt.Errorf("unknown content tier %q", label)
}

// MetadataTier is the metadata tier of a record: 0, A, B or C.
type MetadataTier int

const (
	MetadataT0 MetadataTier = iota
	MetadataTA
	MetadataTB
	MetadataTC
)

var metadataLabels = [...]string{"0", "A", "B", "C"}

// MetadataTiers lists every metadata tier in ascending order.
var MetadataTiers = []MetadataTier{MetadataT0, MetadataTA, MetadataTB, MetadataTC}

func (t MetadataTier) Level() int {
	if t < MetadataT0 || t > MetadataTC {
		return 0
	}
	return int(t)
}

func (t MetadataTier) Label() string {
	if t < MetadataT0 || t > MetadataTC {
		return "0"
	}
	return metadataLabels[t]
}

func (t MetadataTier) String() string { return "T" + t.Label() }

// ParseMetadataTier resolves a metadata tier label such as "B".
func ParseMetadataTier(label string) (MetadataTier, error) {
	for _, t := range MetadataTiers {
		if t.Label() == label {
			return t, nil
		}
	}
	return MetadataT0, fmt.Errorf("unknown metadata tier %q", label)
}
