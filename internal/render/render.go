package render

import (
	"fmt"
	"time"

	"github.com/verithos/policyforge-backend/internal/types"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPDF, FormatDOCX, FormatHTML:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

type Artifact struct {
	Format      Format
	ContentType string
	FileExt     string
	Data        []byte
}

func contentTypeFor(format Format) string {
	switch format {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "application/octet-stream"
}

// ArtifactFromCache rebuilds the artifact envelope around cached bytes.
func ArtifactFromCache(format Format, data []byte) *Artifact {
	return &Artifact{
		Format:      format,
		ContentType: contentTypeFor(format),
		FileExt:     string(format),
		Data:        data,
	}
}

// Options are presentation switches; they never change which sections exist
// or what they say.
type Options struct {
	Watermark bool
}

// RenderError marks a codec failure. No partial artifact is ever returned
// alongside one.
type RenderError struct {
	Format Format
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// NewDocument assembles the codec input for a policy's IR. The document
// creation time is pinned to the policy's UpdatedAt so rendering is a pure
// function of the snapshot.
func NewDocument(p *types.Policy, sections []Section, locale string) (*Document, error) {
	loc, err := LoadLocale(locale)
	if err != nil {
		return nil, err
	}
	return &Document{
		Title:     p.Name,
		Heading:   loc.DocumentTitle,
		Locale:    loc.Code,
		Sections:  sections,
		CreatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// Render lays out a document in one format. Codecs are dumb layout engines:
// they render exactly the sections they are given, in the given order.
func Render(doc *Document, format Format, opts Options) (*Artifact, error) {
	loc, err := LoadLocale(doc.Locale)
	if err != nil {
		return nil, &RenderError{Format: format, Err: err}
	}
	switch format {
	case FormatPDF:
		data, err := renderPDF(doc, loc, opts)
		if err != nil {
			return nil, &RenderError{Format: format, Err: err}
		}
		return &Artifact{Format: format, ContentType: "application/pdf", FileExt: "pdf", Data: data}, nil
	case FormatDOCX:
		data, err := renderDOCX(doc, loc, opts)
		if err != nil {
			return nil, &RenderError{Format: format, Err: err}
		}
		return &Artifact{
			Format:      format,
			ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			FileExt:     "docx",
			Data:        data,
		}, nil
	case FormatHTML:
		data, err := renderHTML(doc, loc, opts)
		if err != nil {
			return nil, &RenderError{Format: format, Err: err}
		}
		return &Artifact{Format: format, ContentType: "text/html; charset=utf-8", FileExt: "html", Data: data}, nil
	default:
		return nil, &RenderError{Format: format, Err: fmt.Errorf("unknown format")}
	}
}
