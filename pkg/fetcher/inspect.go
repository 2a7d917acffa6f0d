package fetcher

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/dhowden/tag"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/dtnitsch/record-tiers/models"
	"github.com/dtnitsch/record-tiers/pkg/mimetable"
)

// inspect fills the family specific fields of res from the sniffed head.
// Failures leave the fields empty; the mime verdict already stands.
func (f *Fetcher) inspect(res *models.ProbeResult, head []byte) {
	switch mimetable.FamilyOf(res.SniffedMimeType) {
	case mimetable.FamilyImage:
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(head)); err == nil {
			res.Width, res.Height = cfg.Width, cfg.Height
		}
	case mimetable.FamilyAudio:
		if _, ft, err := tag.Identify(bytes.NewReader(head)); err == nil && ft != tag.UnknownFileType {
			res.AudioContainer = string(ft)
		}
	case mimetable.FamilyText:
		if !isHTML(res.SniffedMimeType) {
			return
		}
		base := res.FinalURL
		if base == "" {
			base = res.URL
		}
		page, err := f.parser.Inspect(base, head)
		if err != nil {
			f.logger.Debug("landing page not parsed", "url", base, "error", err)
			return
		}
		res.PageTitle = page.Title
		res.OEmbedURL = page.OEmbedURL
		res.HasOEmbed = page.OEmbedURL != ""
		res.PlayerURLs = page.MediaURLs
		res.ReadableTextLength = page.ReadableTextLength
	}
}

func isHTML(mimeType string) bool {
	return mimeType == "text/html" || mimeType == "application/xhtml+xml"
}
