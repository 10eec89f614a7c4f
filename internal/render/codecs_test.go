package render

import (
	"archive/zip"
	"bytes"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/verithos/policyforge-backend/internal/types"
)

func testDocument(t *testing.T) *Document {
	t.Helper()
	sections, err := BuildIRFromSteps(fullStepData(t), "Política Acme", "es")
	if err != nil {
		t.Fatal(err)
	}
	p := &types.Policy{
		Name:      "Política Acme",
		UpdatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	doc, err := NewDocument(p, sections, "es")
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestRenderAllFormats(t *testing.T) {
	doc := testDocument(t)
	for _, format := range []Format{FormatPDF, FormatDOCX, FormatHTML} {
		art, err := Render(doc, format, Options{})
		if err != nil {
			t.Fatalf("render %s: %v", format, err)
		}
		if len(art.Data) == 0 {
			t.Fatalf("render %s: empty artifact", format)
		}
		if art.Format != format {
			t.Fatalf("render %s: format %s", format, art.Format)
		}
	}
	if _, err := Render(doc, Format("rtf"), Options{}); err == nil {
		t.Fatal("expected unknown format error")
	}
}

func TestRenderDeterminism(t *testing.T) {
	doc := testDocument(t)
	for _, format := range []Format{FormatPDF, FormatDOCX, FormatHTML} {
		for _, wm := range []bool{false, true} {
			a, err := Render(doc, format, Options{Watermark: wm})
			if err != nil {
				t.Fatalf("render %s: %v", format, err)
			}
			b, err := Render(doc, format, Options{Watermark: wm})
			if err != nil {
				t.Fatalf("render %s: %v", format, err)
			}
			if !bytes.Equal(a.Data, b.Data) {
				t.Fatalf("%s watermark=%t: output is not byte-identical across renders", format, wm)
			}
		}
	}
}

var pdfInfoDateRe = regexp.MustCompile(`(CreationDate|ModDate) \(D:(\d{14})`)

// Both info-dictionary dates must come from the document, not the wall
// clock, or repeated renders of the same policy diverge.
func TestPDFInfoDatesPinned(t *testing.T) {
	doc := testDocument(t)
	art, err := Render(doc, FormatPDF, Options{})
	if err != nil {
		t.Fatal(err)
	}
	matches := pdfInfoDateRe.FindAllSubmatch(art.Data, -1)
	if len(matches) < 2 {
		t.Fatalf("pdf info dictionary dates found = %d, want CreationDate and ModDate", len(matches))
	}
	for _, m := range matches {
		if got := string(m[2]); got != "20260301100000" {
			t.Fatalf("%s = %s, want 20260301100000", m[1], got)
		}
	}
}

func TestPDFMagicBytes(t *testing.T) {
	doc := testDocument(t)
	art, err := Render(doc, FormatPDF, Options{Watermark: true})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(art.Data, []byte("%PDF-")) {
		t.Fatal("pdf artifact missing magic bytes")
	}
}

var htmlSectionRe = regexp.MustCompile(`<section id="([a-z_]+)"`)
var htmlAnchorRe = regexp.MustCompile(`<a href="#([a-z_]+)"`)

func TestHTMLAnchorsMatchSectionIDs(t *testing.T) {
	doc := testDocument(t)
	art, err := Render(doc, FormatHTML, Options{})
	if err != nil {
		t.Fatal(err)
	}
	html := string(art.Data)

	var want []string
	for _, s := range doc.Sections {
		want = append(want, s.ID)
	}
	var got []string
	for _, m := range htmlSectionRe.FindAllStringSubmatch(html, -1) {
		got = append(got, m[1])
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("html sections %v, IR sections %v", got, want)
	}
	var anchors []string
	for _, m := range htmlAnchorRe.FindAllStringSubmatch(html, -1) {
		anchors = append(anchors, m[1])
	}
	if strings.Join(anchors, ",") != strings.Join(want, ",") {
		t.Fatalf("toc anchors %v, IR sections %v", anchors, want)
	}
}

func docxPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("docx is not a zip: %v", err)
	}
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				t.Fatal(err)
			}
			defer rc.Close()
			b, err := io.ReadAll(rc)
			if err != nil {
				t.Fatal(err)
			}
			return string(b)
		}
	}
	t.Fatalf("docx part %s not found", name)
	return ""
}

func TestDOCXStructure(t *testing.T) {
	doc := testDocument(t)
	art, err := Render(doc, FormatDOCX, Options{})
	if err != nil {
		t.Fatal(err)
	}
	body := docxPart(t, art.Data, "word/document.xml")
	headings := strings.Count(body, `<w:pStyle w:val="Heading1"/>`)
	if headings != len(doc.Sections) {
		t.Fatalf("docx headings = %d, IR sections = %d", headings, len(doc.Sections))
	}
	if !strings.Contains(body, "Bases jur") {
		t.Fatal("docx missing expected section title text")
	}
}

func TestWatermarkIsolation(t *testing.T) {
	doc := testDocument(t)

	// HTML: the section list and its contents are identical; only the
	// watermark overlay differs.
	plain, err := Render(doc, FormatHTML, Options{Watermark: false})
	if err != nil {
		t.Fatal(err)
	}
	marked, err := Render(doc, FormatHTML, Options{Watermark: true})
	if err != nil {
		t.Fatal(err)
	}
	plainIDs := htmlSectionRe.FindAllString(string(plain.Data), -1)
	markedIDs := htmlSectionRe.FindAllString(string(marked.Data), -1)
	if strings.Join(plainIDs, ",") != strings.Join(markedIDs, ",") {
		t.Fatal("watermark changed the html section set")
	}
	if !strings.Contains(string(marked.Data), `class="watermark"`) {
		t.Fatal("watermarked html missing the overlay")
	}
	if strings.Contains(string(plain.Data), `class="watermark"`) {
		t.Fatal("plain html has a watermark overlay")
	}

	// DOCX: same heading count, watermark only adds the page header part.
	plainDocx, err := Render(doc, FormatDOCX, Options{Watermark: false})
	if err != nil {
		t.Fatal(err)
	}
	markedDocx, err := Render(doc, FormatDOCX, Options{Watermark: true})
	if err != nil {
		t.Fatal(err)
	}
	plainBody := docxPart(t, plainDocx.Data, "word/document.xml")
	markedBody := docxPart(t, markedDocx.Data, "word/document.xml")
	if strings.Count(plainBody, `<w:pStyle w:val="Heading1"/>`) != strings.Count(markedBody, `<w:pStyle w:val="Heading1"/>`) {
		t.Fatal("watermark changed the docx section count")
	}
	if !strings.Contains(docxPart(t, markedDocx.Data, "word/header1.xml"), "GRATUITA") {
		t.Fatal("watermarked docx missing header text")
	}
}

func TestHTMLContainsTransferBullet(t *testing.T) {
	data := fullStepData(t)
	data[7] = canonicalStep(t, 7, []byte(`{"has_international_transfers":true,"transfers":[{"country":"USA","recipient":"AWS","purpose":"hosting"}]}`))
	sections, err := BuildIRFromSteps(data, "Política Acme", "es")
	if err != nil {
		t.Fatal(err)
	}
	p := &types.Policy{Name: "Política Acme", UpdatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	doc, err := NewDocument(p, sections, "es")
	if err != nil {
		t.Fatal(err)
	}

	html, err := Render(doc, FormatHTML, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html.Data), "USA — AWS: hosting") {
		t.Fatal("html missing the transfer bullet")
	}
	docx, err := Render(doc, FormatDOCX, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(docxPart(t, docx.Data, "word/document.xml"), "USA — AWS: hosting") {
		t.Fatal("docx missing the transfer bullet")
	}
}
