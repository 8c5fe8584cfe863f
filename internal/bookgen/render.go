package bookgen

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"strings"
)

const messagesPerPage = 12

// Page is one rendered book page.
type Page struct {
	Heading string
	Lines   []string
}

// Paginate lays the conversations out into pages: a heading page per
// conversation, then fixed-size batches of messages.
func Paginate(convs []Conversation) []Page {
	var pages []Page
	for _, c := range convs {
		for i := 0; i < len(c.Messages); i += messagesPerPage {
			end := i + messagesPerPage
			if end > len(c.Messages) {
				end = len(c.Messages)
			}
			p := Page{Heading: c.Name}
			for _, m := range c.Messages[i:end] {
				if m.Sender != "" {
					p.Lines = append(p.Lines, m.Sender+": "+m.Text)
				} else {
					p.Lines = append(p.Lines, m.Text)
				}
			}
			pages = append(pages, p)
		}
	}
	return pages
}

// RenderPDF emits a minimal but valid PDF: one page object and one
// Helvetica content stream per book page. Enough for proofing and for the
// print master; typography belongs to the print shop.
func RenderPDF(title string, pages []Page) []byte {
	var objs []string
	kids := make([]string, len(pages))

	// obj 1: catalog, obj 2: page tree, obj 3: font; pages follow in pairs.
	for i, p := range pages {
		pageNum := 4 + i*2
		streamNum := pageNum + 1
		kids[i] = fmt.Sprintf("%d 0 R", pageNum)

		var text strings.Builder
		text.WriteString("BT /F1 14 Tf 50 780 Td (" + escapePDF(p.Heading) + ") Tj ET\n")
		y := 750
		for _, line := range p.Lines {
			text.WriteString(fmt.Sprintf("BT /F1 10 Tf 50 %d Td (%s) Tj ET\n", y, escapePDF(line)))
			y -= 18
		}
		stream := text.String()

		objs = append(objs,
			fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>\nendobj\n", pageNum, streamNum),
			fmt.Sprintf("%d 0 obj\n<< /Length %d >>\nstream\n%sendstream\nendobj\n", streamNum, len(stream), stream),
		)
	}

	header := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), len(pages)),
		"3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n",
	}
	all := append(header, objs...)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(all))
	for i, o := range all {
		offsets[i] = buf.Len()
		buf.WriteString(o)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(all)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(all)+1, xref)
	return buf.Bytes()
}

func escapePDF(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "(", "\\(", ")", "\\)")
	return r.Replace(s)
}

// RenderEPUB packages the pages as a minimal EPUB (which is a zip with a
// fixed layout).
func RenderEPUB(title string, pages []Page) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	// mimetype must be first and stored uncompressed.
	mt, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return nil, err
	}
	if _, err := mt.Write([]byte("application/epub+zip")); err != nil {
		return nil, err
	}

	files := map[string]string{
		"META-INF/container.xml": `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`,
		"OEBPS/content.opf": fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" unique-identifier="id" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>%s</dc:title><dc:language>fr</dc:language></metadata>
  <manifest><item id="book" href="book.xhtml" media-type="application/xhtml+xml"/></manifest>
  <spine><itemref idref="book"/></spine>
</package>`, html.EscapeString(title)),
		"OEBPS/book.xhtml": renderXHTML(title, pages),
	}
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := f.Write([]byte(content)); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderDOCX packages the pages as a minimal WordprocessingML document.
func RenderDOCX(title string, pages []Page) ([]byte, error) {
	var body strings.Builder
	for _, p := range pages {
		body.WriteString(`<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>` + html.EscapeString(p.Heading) + `</w:t></w:r></w:p>`)
		for _, line := range p.Lines {
			body.WriteString(`<w:p><w:r><w:t>` + html.EscapeString(line) + `</w:t></w:r></w:p>`)
		}
		body.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`,
		"_rels/.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body.String() + `</w:body></w:document>`,
	}
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := f.Write([]byte(content)); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderXHTML(title string, pages []Page) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>` + html.EscapeString(title) + `</title></head><body>`)
	for _, p := range pages {
		b.WriteString("<h2>" + html.EscapeString(p.Heading) + "</h2>")
		for _, line := range p.Lines {
			b.WriteString("<p>" + html.EscapeString(line) + "</p>")
		}
	}
	b.WriteString("</body></html>")
	return b.String()
}
