package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"answerpath-backend/internal/documents"
)

const docxBodyPart = "word/document.xml"

// extractDOCX walks word/document.xml and groups paragraphs by page. Word
// files carry no reliable page layout, so pages advance only on explicit page
// breaks and on the renderer's last page-break markers; everything else is page 1.
func extractDOCX(data []byte) ([]Segment, error) {
	if len(data) == 0 {
		return nil, corrupt(documents.FileTypeDOCX, "empty file")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, corrupt(documents.FileTypeDOCX, "%v", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if name == docxBodyPart {
			body = f
			break
		}
		if name == "xl/workbook.xml" {
			return nil, corrupt(documents.FileTypeDOCX, "archive is a spreadsheet")
		}
	}
	if body == nil {
		return nil, corrupt(documents.FileTypeDOCX, "%s not found", docxBodyPart)
	}

	rc, err := body.Open()
	if err != nil {
		return nil, corrupt(documents.FileTypeDOCX, "%v", err)
	}
	defer rc.Close()

	w := newDocxWalker()
	if err := w.walk(rc); err != nil {
		return nil, corrupt(documents.FileTypeDOCX, "%v", err)
	}
	return w.segments(), nil
}

type docxWalker struct {
	page       int
	pages      map[int][]string
	order      []int
	para       strings.Builder
	inText     bool
	sinceBreak bool // text seen since the last page advance
}

func newDocxWalker() *docxWalker {
	return &docxWalker{page: 1, pages: make(map[int][]string)}
}

func (w *docxWalker) walk(r io.Reader) error {
	decoder := xml.NewDecoder(r)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				w.inText = true
			case "tab":
				w.para.WriteString("\t")
			case "cr":
				w.para.WriteString("\n")
			case "br":
				if attr(t, "type") == "page" {
					w.advance(true)
				} else {
					w.para.WriteString("\n")
				}
			case "lastRenderedPageBreak":
				w.advance(false)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				w.inText = false
			case "p":
				w.endParagraph()
			}
		case xml.CharData:
			if w.inText {
				w.para.Write(t)
				if len(bytes.TrimSpace(t)) > 0 {
					w.sinceBreak = true
				}
			}
		}
	}
	w.endParagraph()
	return nil
}

// advance moves to the next page. A rendered break right after another break
// marks the same page boundary and is not counted twice.
func (w *docxWalker) advance(explicit bool) {
	if !explicit && !w.sinceBreak {
		return
	}
	w.endParagraph()
	w.page++
	w.sinceBreak = false
}

func (w *docxWalker) endParagraph() {
	text := strings.TrimSpace(w.para.String())
	w.para.Reset()
	if text == "" {
		return
	}
	if _, ok := w.pages[w.page]; !ok {
		w.order = append(w.order, w.page)
	}
	w.pages[w.page] = append(w.pages[w.page], text)
}

func (w *docxWalker) segments() []Segment {
	out := make([]Segment, 0, len(w.order))
	for _, page := range w.order {
		out = append(out, Segment{
			Text:     strings.Join(w.pages[page], "\n\n"),
			Position: position(page),
			Kind:     KindPage,
		})
	}
	return out
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
