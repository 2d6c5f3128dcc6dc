package vectorindex

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// docxSeparator splits a paragraph into title, url and description.
const docxSeparator = " - "

// readDocx turns every non-blank paragraph of a Word document into a
// record. Text after the second separator is all description.
func readDocx(path string) ([]Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	body, err := readZipEntry(zr.File, docxBody)
	if err != nil {
		return nil, err
	}
	paras, err := docxParagraphs(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", docxBody, err)
	}

	var docs []Document
	for _, p := range paras {
		parts := strings.SplitN(p, docxSeparator, 3)
		d := Document{Title: parts[0]}
		if len(parts) > 1 {
			d.URL = parts[1]
		}
		if len(parts) > 2 {
			d.Description = parts[2]
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func readZipEntry(files []*zip.File, name string) ([]byte, error) {
	for _, f := range files {
		if !strings.EqualFold(f.Name, name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("docx has no %s", name)
}

// docxParagraphs returns the trimmed text of each non-blank <w:p>. Runs are
// concatenated; tabs and breaks become spaces.
func docxParagraphs(body []byte) ([]string, error) {
	dec := xml.NewDecoder(strings.NewReader(string(body)))
	var (
		out         []string
		text        strings.Builder
		inParagraph bool
		inText      bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				text.Reset()
			case "t":
				inText = inParagraph
			case "tab", "br":
				if inParagraph {
					text.WriteByte(' ')
				}
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if s := strings.TrimSpace(text.String()); s != "" {
					out = append(out, s)
				}
				inParagraph, inText = false, false
				text.Reset()
			}
		}
	}
}
