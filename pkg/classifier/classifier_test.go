package classifier

import (
	"errors"
	"testing"

	"github.com/dtnitsch/record-tiers/models"
	"github.com/dtnitsch/record-tiers/pkg/record"
	"github.com/dtnitsch/record-tiers/pkg/tier"
)

func fixed[T tier.Tier](t T) Classifier[T] {
	return Func[T](func(Input) T { return t })
}

func TestCombinedTakesMinimum(t *testing.T) {
	orders := map[string][]Classifier[tier.MediaTier]{
		"T0 first": {fixed(tier.MediaT0), fixed(tier.MediaT3)},
		"T3 first": {fixed(tier.MediaT3), fixed(tier.MediaT0)},
	}
	for name, classifiers := range orders {
		t.Run(name, func(t *testing.T) {
			c, err := NewCombined(classifiers...)
			if err != nil {
				t.Fatalf("NewCombined() error = %v", err)
			}
			if got := c.Classify(Input{}); got != tier.MediaT0 {
				t.Errorf("Classify() = %v, want T0", got)
			}
		})
	}
}

func TestCombinedMetadata(t *testing.T) {
	c, err := NewCombined(fixed(tier.MetadataTC), fixed(tier.MetadataTA), fixed(tier.MetadataTB))
	if err != nil {
		t.Fatalf("NewCombined() error = %v", err)
	}
	if got := c.Classify(Input{}); got != tier.MetadataTA {
		t.Errorf("Classify() = %v, want TA", got)
	}
}

func TestCombinedRejectsEmpty(t *testing.T) {
	c, err := NewCombined[tier.MediaTier]()
	if !errors.Is(err, ErrNoClassifiers) {
		t.Fatalf("NewCombined() error = %v, want ErrNoClassifiers", err)
	}
	if c != nil {
		t.Error("NewCombined() returned a classifier alongside the error")
	}
	if _, err := NewCombined[tier.MediaTier](nil); err == nil {
		t.Error("NewCombined(nil) expected error")
	}
}

func TestCombinedSharedRankIgnoresOrder(t *testing.T) {
	orders := map[string][]Classifier[tier.MediaTier]{
		"T4 first": {fixed(tier.MediaT4), fixed(tier.MediaT3)},
		"T3 first": {fixed(tier.MediaT3), fixed(tier.MediaT4)},
	}
	for name, classifiers := range orders {
		t.Run(name, func(t *testing.T) {
			c, err := NewCombined(classifiers...)
			if err != nil {
				t.Fatalf("NewCombined() error = %v", err)
			}
			if got := c.Classify(Input{}); got != tier.MediaT3 {
				t.Errorf("Classify() = %v, want T3", got)
			}
		})
	}
}

const (
	openRights       = "http://creativecommons.org/publicdomain/zero/1.0/"
	restrictedRights = "http://creativecommons.org/licenses/by-nc/4.0/"
	closedRights     = "http://rightsstatements.org/vocab/InC/1.0/"

	shownBy = "http://example.org/media/1"
	view    = "http://example.org/media/2"
	page    = "http://example.org/page/1"
)

type fixture struct {
	edm        string
	declared   string
	pageMime   string
	rights     string
	width      int
	height     int
	withView   bool
	withoutAll bool
}

func (f fixture) wrapper() *record.Wrapper {
	agg := record.Aggregation{About: "/agg", IsShownAt: page, Rights: f.rights}
	if !f.withoutAll {
		agg.IsShownBy = shownBy
		if f.withView {
			agg.HasViews = []string{view}
		}
	}
	return record.Wrap(record.Record{
		ProvidedCHO: "/item/1",
		Proxies: []record.Proxy{{
			About:      "/proxy/1",
			Properties: record.Properties{"edm:type": {{Value: f.edm}}},
		}},
		Aggregations: []record.Aggregation{agg},
		WebResources: []record.WebResource{
			{About: shownBy, MimeType: f.declared, Width: f.width, Height: f.height},
			{About: page, MimeType: f.pageMime},
		},
	})
}

func ok(mime string) *models.ProbeResult {
	return &models.ProbeResult{Outcome: models.ProbeOK, SniffedMimeType: mime}
}

func TestMediaClassifier(t *testing.T) {
	failed := &models.ProbeResult{Outcome: models.ProbeFailed, StatusCode: 404, ErrorKind: "status"}
	canceled := &models.ProbeResult{Outcome: models.ProbeCanceled}
	bigJPEG := ok("image/jpeg")
	bigJPEG.Width, bigJPEG.Height = 1000, 1000
	midJPEG := ok("image/jpeg")
	midJPEG.Width, midJPEG.Height = 800, 600
	article := ok("text/html")
	article.ReadableTextLength = 2000
	stub := ok("text/html")
	stub.ReadableTextLength = 40

	tests := []struct {
		name   string
		fix    fixture
		probes map[string]*models.ProbeResult
		want   tier.MediaTier
	}{
		{"large image", fixture{edm: "IMAGE", declared: "image/jpeg"}, map[string]*models.ProbeResult{shownBy: bigJPEG}, tier.MediaT4},
		{"medium image", fixture{edm: "IMAGE", declared: "image/jpeg"}, map[string]*models.ProbeResult{shownBy: midJPEG}, tier.MediaT2},
		{"declared dimensions", fixture{edm: "IMAGE", width: 400, height: 300}, map[string]*models.ProbeResult{shownBy: ok("image/png")}, tier.MediaT1},
		{"tiny image", fixture{edm: "IMAGE", width: 100, height: 100}, map[string]*models.ProbeResult{shownBy: ok("image/png")}, tier.MediaT0},
		{"unknown dimensions", fixture{edm: "IMAGE"}, map[string]*models.ProbeResult{shownBy: ok("image/gif")}, tier.MediaT1},
		{"image 404", fixture{edm: "IMAGE", declared: "image/jpeg", pageMime: "text/html"}, map[string]*models.ProbeResult{shownBy: failed}, tier.MediaT0},
		{"image canceled", fixture{edm: "IMAGE"}, map[string]*models.ProbeResult{shownBy: canceled}, tier.MediaT0},
		{"image not probed", fixture{edm: "IMAGE"}, nil, tier.MediaT0},
		{"image best view wins", fixture{edm: "IMAGE", withView: true}, map[string]*models.ProbeResult{shownBy: failed, view: bigJPEG}, tier.MediaT4},
		{"declared family mismatch", fixture{edm: "IMAGE", declared: "application/pdf"}, map[string]*models.ProbeResult{shownBy: bigJPEG}, tier.MediaT2},
		{"image is really text", fixture{edm: "IMAGE"}, map[string]*models.ProbeResult{shownBy: ok("text/html")}, tier.MediaT0},
		{"text pdf", fixture{edm: "TEXT"}, map[string]*models.ProbeResult{shownBy: ok("application/pdf")}, tier.MediaT4},
		{"text article", fixture{edm: "TEXT"}, map[string]*models.ProbeResult{shownBy: article}, tier.MediaT2},
		{"text stub page", fixture{edm: "TEXT"}, map[string]*models.ProbeResult{shownBy: stub}, tier.MediaT1},
		{"text scanned page", fixture{edm: "TEXT"}, map[string]*models.ProbeResult{shownBy: bigJPEG}, tier.MediaT4},
		{"text failing with landing page", fixture{edm: "TEXT", pageMime: "text/html"}, map[string]*models.ProbeResult{shownBy: failed}, tier.MediaT1},
		{"text without resources", fixture{edm: "TEXT", withoutAll: true, pageMime: "text/html"}, nil, tier.MediaT1},
		{"image without resources", fixture{edm: "IMAGE", withoutAll: true, pageMime: "text/html"}, nil, tier.MediaT0},
		{"sound", fixture{edm: "SOUND", declared: "audio/mpeg"}, map[string]*models.ProbeResult{shownBy: ok("audio/mpeg")}, tier.MediaT4},
		{"sound in mp4", fixture{edm: "SOUND", declared: "audio/mp4"}, map[string]*models.ProbeResult{shownBy: ok("video/mp4")}, tier.MediaT4},
		{"video high", fixture{edm: "VIDEO", height: 720}, map[string]*models.ProbeResult{shownBy: ok("video/mp4")}, tier.MediaT4},
		{"video low", fixture{edm: "VIDEO", height: 240}, map[string]*models.ProbeResult{shownBy: ok("video/webm")}, tier.MediaT2},
		{"video unknown height", fixture{edm: "VIDEO"}, map[string]*models.ProbeResult{shownBy: ok("video/mp4")}, tier.MediaT3},
		{"3d stl", fixture{edm: "3D", declared: "model/stl"}, map[string]*models.ProbeResult{shownBy: ok("model/x.stl-binary")}, tier.MediaT4},
		{"landing page confirmed by probe", fixture{edm: "SOUND"}, map[string]*models.ProbeResult{shownBy: failed, page: ok("text/html")}, tier.MediaT1},
		{"unknown type", fixture{edm: "PAINTING"}, map[string]*models.ProbeResult{shownBy: bigJPEG}, tier.MediaT0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fix := tt.fix
			if fix.rights == "" {
				fix.rights = openRights
			}
			in := Input{Record: fix.wrapper(), Probes: tt.probes}
			if got := (Media{}).Classify(in); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMediaEmbeddable(t *testing.T) {
	w := record.Wrap(record.Record{
		ProvidedCHO: "/item/1",
		Proxies:     []record.Proxy{{About: "/p", Properties: record.Properties{"edm:type": {{Value: "VIDEO"}}}}},
		Aggregations: []record.Aggregation{{
			About:     "/agg",
			IsShownBy: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			Rights:    openRights,
		}},
	})
	b := Media{}.Breakdown(Input{Record: w})
	if !b.Embeddable || b.Tier != tier.MediaT4 {
		t.Errorf("Breakdown() = embeddable %v tier %v, want true T4", b.Embeddable, b.Tier)
	}
	if len(b.Resources) != 0 {
		t.Errorf("embeddable media should not need resource verdicts, got %d", len(b.Resources))
	}
}

func TestMediaBreakdownVerdicts(t *testing.T) {
	bigJPEG := ok("image/jpeg")
	bigJPEG.Width, bigJPEG.Height = 2000, 1500
	in := Input{
		Record: fixture{edm: "IMAGE", declared: "application/pdf", withView: true}.wrapper(),
		Probes: map[string]*models.ProbeResult{shownBy: bigJPEG},
	}
	b := Media{}.Breakdown(in)
	if len(b.Resources) != 2 {
		t.Fatalf("Resources = %d, want 2", len(b.Resources))
	}
	first := b.Resources[0]
	if !first.Usable || !first.Mismatch || first.Tier != tier.MediaT2 {
		t.Errorf("first verdict = %+v", first)
	}
	if b.Resources[1].Usable {
		t.Error("unprobed view reported usable")
	}
}

func TestLicenseClassifier(t *testing.T) {
	tests := []struct {
		rights string
		want   tier.MediaTier
	}{
		{"http://creativecommons.org/publicdomain/zero/1.0/", tier.MediaT4},
		{"http://creativecommons.org/licenses/by-nc/4.0/", tier.MediaT3},
		{"http://rightsstatements.org/vocab/InC/1.0/", tier.MediaT2},
		{"", tier.MediaT2},
	}
	for _, tt := range tests {
		in := Input{Record: fixture{edm: "IMAGE", rights: tt.rights}.wrapper()}
		if got := (License{}).Classify(in); got != tt.want {
			t.Errorf("License.Classify(%q) = %v, want %v", tt.rights, got, tt.want)
		}
	}
}

func TestContentClassifierCapsByLicense(t *testing.T) {
	bigJPEG := ok("image/jpeg")
	bigJPEG.Width, bigJPEG.Height = 1000, 1000
	c, err := NewContentClassifier(Media{})
	if err != nil {
		t.Fatalf("NewContentClassifier() error = %v", err)
	}

	closed := Input{
		Record: fixture{edm: "IMAGE", rights: "http://rightsstatements.org/vocab/InC/1.0/"}.wrapper(),
		Probes: map[string]*models.ProbeResult{shownBy: bigJPEG},
	}
	if got := c.Classify(closed); got != tier.MediaT2 {
		t.Errorf("closed license content tier = %v, want T2", got)
	}

	open := Input{
		Record: fixture{edm: "IMAGE", rights: "http://creativecommons.org/publicdomain/mark/1.0/"}.wrapper(),
		Probes: map[string]*models.ProbeResult{shownBy: bigJPEG},
	}
	if got := c.Classify(open); got != tier.MediaT4 {
		t.Errorf("open license content tier = %v, want T4", got)
	}
}

func TestContentClassifierRestrictedIgnoresOrder(t *testing.T) {
	bigJPEG := ok("image/jpeg")
	bigJPEG.Width, bigJPEG.Height = 1000, 1000
	in := Input{
		Record: fixture{edm: "IMAGE", declared: "image/jpeg", rights: restrictedRights}.wrapper(),
		Probes: map[string]*models.ProbeResult{shownBy: bigJPEG},
	}

	mediaFirst, err := NewContentClassifier(Media{})
	if err != nil {
		t.Fatalf("NewContentClassifier() error = %v", err)
	}
	licenseFirst, err := NewCombined[tier.MediaTier](License{}, Media{})
	if err != nil {
		t.Fatalf("NewCombined() error = %v", err)
	}
	for name, c := range map[string]Classifier[tier.MediaTier]{"media first": mediaFirst, "license first": licenseFirst} {
		t.Run(name, func(t *testing.T) {
			if got := c.Classify(in); got.Label() != "3" {
				t.Errorf("content tier = %q, want 3", got.Label())
			}
		})
	}
}

func TestMediaLicensePerResource(t *testing.T) {
	const smallView = "http://example.org/media/small"
	w := record.Wrap(record.Record{
		ProvidedCHO: "/item/1",
		Proxies:     []record.Proxy{{About: "/p", Properties: record.Properties{"edm:type": {{Value: "IMAGE"}}}}},
		Aggregations: []record.Aggregation{{
			About:     "/agg",
			IsShownBy: shownBy,
			HasViews:  []string{smallView},
			Rights:    closedRights,
		}},
		WebResources: []record.WebResource{
			{About: shownBy, MimeType: "image/jpeg", Width: 1000, Height: 1000},
			{About: smallView, MimeType: "image/jpeg", Width: 400, Height: 300, Rights: openRights},
		},
	})
	in := Input{Record: w, Probes: map[string]*models.ProbeResult{shownBy: ok("image/jpeg"), smallView: ok("image/jpeg")}}

	b := Media{}.Breakdown(in)
	if len(b.Resources) != 2 {
		t.Fatalf("Resources = %d, want 2", len(b.Resources))
	}
	tests := []struct {
		url     string
		license record.LicenseType
		want    tier.MediaTier
	}{
		{shownBy, record.LicenseClosed, tier.MediaT2},
		{smallView, record.LicenseOpen, tier.MediaT1},
	}
	for i, tt := range tests {
		v := b.Resources[i]
		if v.Entry.URL != tt.url || v.License != tt.license || v.Tier != tt.want {
			t.Errorf("verdict %d = %s %v %v, want %s %v %v", i, v.Entry.URL, v.License, v.Tier, tt.url, tt.license, tt.want)
		}
	}

	c, err := NewContentClassifier(Media{})
	if err != nil {
		t.Fatalf("NewContentClassifier() error = %v", err)
	}
	if got := c.Classify(in); got.Label() != "2" {
		t.Errorf("content tier = %q, want 2 from the closed full resolution image", got.Label())
	}
}

func TestMediaEmbeddableFromLandingPagePlayer(t *testing.T) {
	landing := ok("text/html")
	landing.PlayerURLs = []string{"https://player.vimeo.com/video/76979871"}
	in := Input{
		Record: fixture{edm: "VIDEO", pageMime: "text/html", rights: openRights}.wrapper(),
		Probes: map[string]*models.ProbeResult{
			shownBy: {Outcome: models.ProbeFailed, StatusCode: 404, ErrorKind: "status"},
			page:    landing,
		},
	}
	b := Media{}.Breakdown(in)
	if !b.Embeddable || b.Tier != tier.MediaT4 {
		t.Errorf("Breakdown() = embeddable %v tier %v, want true T4", b.Embeddable, b.Tier)
	}

	landing.PlayerURLs = nil
	if b := (Media{}).Breakdown(in); b.Embeddable {
		t.Error("landing page without a player reported embeddable")
	}
}
