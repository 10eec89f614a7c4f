package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// renderDOCX writes the WordprocessingML package directly: a deterministic
// zip of the minimal OOXML parts. Part order and timestamps are fixed so
// identical documents produce identical bytes.
func renderDOCX(doc *Document, loc *Locale, opts Options) ([]byte, error) {
	var body strings.Builder

	docxParagraph(&body, "Title", doc.Heading)
	docxParagraph(&body, "Subtitle", doc.Title)

	for i, sec := range doc.Sections {
		docxParagraph(&body, "Heading1", fmt.Sprintf("%d. %s", i+1, sec.Title))
		for _, b := range sec.Blocks {
			switch b.Kind {
			case BlockParagraph:
				docxParagraph(&body, "", b.Text)
			case BlockFact:
				docxFact(&body, b.Label, b.Value)
			case BlockBullets:
				for _, item := range b.Items {
					docxBullet(&body, item)
				}
			}
		}
	}

	withHeader := opts.Watermark
	parts := []zipPart{
		{"[Content_Types].xml", docxContentTypes(withHeader)},
		{"_rels/.rels", docxPackageRels},
		{"word/document.xml", docxDocument(body.String(), withHeader)},
		{"word/_rels/document.xml.rels", docxDocumentRels(withHeader)},
		{"word/styles.xml", docxStyles},
	}
	if withHeader {
		parts = append(parts, zipPart{"word/header1.xml", docxHeader(loc.WatermarkText)})
	}
	return writeZip(parts)
}

type zipPart struct {
	name string
	data string
}

func writeZip(parts []zipPart) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		// Zero Modified keeps the archive byte-stable across renders.
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("zip part %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(p.data)); err != nil {
			return nil, fmt.Errorf("zip part %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func docxParagraph(w *strings.Builder, style, text string) {
	w.WriteString("<w:p>")
	if style != "" {
		fmt.Fprintf(w, `<w:pPr><w:pStyle w:val="%s"/></w:pPr>`, style)
	}
	fmt.Fprintf(w, `<w:r><w:t xml:space="preserve">%s</w:t></w:r>`, xmlEscape(text))
	w.WriteString("</w:p>")
}

func docxFact(w *strings.Builder, label, value string) {
	w.WriteString("<w:p>")
	fmt.Fprintf(w, `<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">%s: </w:t></w:r>`, xmlEscape(label))
	fmt.Fprintf(w, `<w:r><w:t xml:space="preserve">%s</w:t></w:r>`, xmlEscape(value))
	w.WriteString("</w:p>")
}

func docxBullet(w *strings.Builder, text string) {
	w.WriteString(`<w:p><w:pPr><w:ind w:left="400"/></w:pPr>`)
	fmt.Fprintf(w, `<w:r><w:t xml:space="preserve">%s %s</w:t></w:r>`, "•", xmlEscape(text))
	w.WriteString("</w:p>")
}

func docxContentTypes(withHeader bool) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	b.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)
	b.WriteString(`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>`)
	if withHeader {
		b.WriteString(`<Override PartName="/word/header1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"/>`)
	}
	b.WriteString(`</Types>`)
	return b.String()
}

const docxPackageRels = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

func docxDocumentRels(withHeader bool) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	b.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>`)
	if withHeader {
		b.WriteString(`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/header" Target="header1.xml"/>`)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func docxDocument(body string, withHeader bool) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`)
	b.WriteString(`<w:body>`)
	b.WriteString(body)
	b.WriteString(`<w:sectPr>`)
	if withHeader {
		b.WriteString(`<w:headerReference w:type="default" r:id="rId2"/>`)
	}
	b.WriteString(`<w:pgSz w:w="11906" w:h="16838"/>`)
	b.WriteString(`<w:pgMar w:top="1134" w:right="1134" w:bottom="1134" w:left="1134" w:header="567" w:footer="567"/>`)
	b.WriteString(`</w:sectPr>`)
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

// docxHeader repeats the watermark text at the top of every page.
func docxHeader(watermark string) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`)
	b.WriteString(`<w:p><w:pPr><w:jc w:val="center"/></w:pPr>`)
	b.WriteString(`<w:r><w:rPr><w:b/><w:color w:val="C0C0C0"/><w:sz w:val="28"/></w:rPr>`)
	fmt.Fprintf(&b, `<w:t xml:space="preserve">%s</w:t>`, xmlEscape(watermark))
	b.WriteString(`</w:r></w:p></w:hdr>`)
	return b.String()
}

const docxStyles = xml.Header + `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:pPr><w:jc w:val="center"/><w:spacing w:after="120"/></w:pPr><w:rPr><w:b/><w:sz w:val="40"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Subtitle"><w:name w:val="Subtitle"/><w:pPr><w:jc w:val="center"/><w:spacing w:after="240"/></w:pPr><w:rPr><w:sz w:val="28"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:pPr><w:spacing w:before="240" w:after="120"/></w:pPr><w:rPr><w:b/><w:sz w:val="26"/></w:rPr></w:style>` +
	`</w:styles>`
