package render

import (
	"fmt"
	"os"

	"github.com/dshills/contractdesk/internal/contract"
)

// Renderer formats a contract into a printable document.
type Renderer interface {
	Render(rec *contract.Record) ([]byte, error)
	// Ext is the file extension of the rendered document, with the dot.
	Ext() string
}

// Option configures renderers built by NewRenderer.
type Option func(*options)

type options struct {
	fontPath string
	stamp    []byte
}

// WithFont embeds the TrueType font at path in place of the built-in
// DejaVu Sans Condensed.
func WithFont(path string) Option {
	return func(o *options) { o.fontPath = path }
}

// WithStamp replaces the default stamp mark with PNG data.
func WithStamp(png []byte) Option {
	return func(o *options) { o.stamp = png }
}

// NewRenderer returns a Renderer for the given format string.
// Supported formats: "pdf" (default), "md", "json".
func NewRenderer(format string, opts ...Option) (Renderer, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	switch format {
	case "pdf", "":
		return &pdfRenderer{fontPath: o.fontPath, stamp: o.stamp}, nil
	case "md":
		return &markdownRenderer{}, nil
	case "json":
		return &jsonRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q: supported formats are pdf, md, json", format)
	}
}

// RenderToFile renders rec and writes exactly one file at path.
func RenderToFile(r Renderer, rec *contract.Record, path string) error {
	data, err := r.Render(rec)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}
