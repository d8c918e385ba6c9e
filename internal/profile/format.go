package profile

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/mesh-intelligence/profilefields/pkg/types"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
			goldmarkhtml.WithXHTML(),
			goldmarkhtml.WithUnsafe(), // sanitized below
		),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// FormatText renders stored field data as safe HTML according to its
// format. Plain text is escaped; HTML is sanitized; Markdown is rendered
// then sanitized. The default format keeps HTML and turns newlines into
// line breaks.
func FormatText(data string, format int) string {
	switch format {
	case types.FormatPlain:
		return nl2br(html.EscapeString(data))
	case types.FormatHTML:
		return sanitizer.Sanitize(data)
	case types.FormatMarkdown:
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(data), &buf); err != nil {
			return nl2br(html.EscapeString(data))
		}
		return strings.TrimSpace(sanitizer.Sanitize(buf.String()))
	default:
		return nl2br(sanitizer.Sanitize(data))
	}
}

func nl2br(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br />")
}
