package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DOCXExtractor extracts text from DOCX files. A .docx is a zip archive
// whose word/document.xml holds the body as w:p paragraph elements;
// non-empty paragraph texts are joined with newlines, whitespace-only
// paragraphs are skipped.
type DOCXExtractor struct{}

func NewDOCXExtractor() *DOCXExtractor {
	return &DOCXExtractor{}
}

func (e *DOCXExtractor) SupportedTypes() []string {
	return []string{".docx"}
}

func (e *DOCXExtractor) Extract(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		defer rc.Close()
		return parseDocumentXML(rc)
	}
	return "", fmt.Errorf("docx missing word/document.xml")
}

// parseDocumentXML walks the document stream, accumulating w:t text runs
// per w:p paragraph.
func parseDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var paragraphs []string
	var current strings.Builder
	inParagraph := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "t":
				if inParagraph {
					var text string
					if err := dec.DecodeElement(&text, &t); err != nil {
						return "", fmt.Errorf("parse text run: %w", err)
					}
					current.WriteString(text)
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				if para := current.String(); strings.TrimSpace(para) != "" {
					paragraphs = append(paragraphs, para)
				}
			}
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}
