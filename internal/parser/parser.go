package parser

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

// Provenance ties a document item back to its position in the source file.
type Provenance struct {
	PageNo int
}

// Item is one structural unit of a converted document: a PDF page, a DOCX
// paragraph, a spreadsheet sheet or a slide. Items without provenance are
// tolerated everywhere downstream.
type Item struct {
	Text string
	Prov []Provenance
}

// Document is the converter output consumed by the chunker. Only two
// operations are needed downstream: markdown export and item iteration.
type Document struct {
	Filename string
	Title    string
	Items    []Item
}

// Markdown flattens the document into a markdown string, one block per item.
func (d *Document) Markdown() string {
	var b strings.Builder
	for _, item := range d.Items {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

// Parse converts the file at path into a Document, dispatching on the file
// extension. An empty file yields a Document with zero items, not an error.
func Parse(path string) (*Document, error) {
	doc := &Document{
		Filename: filepath.Base(path),
		Title:    titleFromPath(path),
	}

	var (
		items []Item
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		items, err = parsePDF(path)
	case ".docx":
		items, err = parseDOCX(path)
	case ".pptx":
		items, err = parsePPTX(path)
	case ".xlsx":
		items, err = parseXLSX(path)
	case ".ods":
		items, err = parseODS(path)
	case ".txt", ".md":
		items, err = parseText(path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
	if err != nil {
		return nil, err
	}
	doc.Items = items
	return doc, nil
}

func parsePDF(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var items []Item
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		items = append(items, Item{
			Text: pageText,
			Prov: []Provenance{{PageNo: i}},
		})
	}
	return items, nil
}

func parseDOCX(path string) ([]Item, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var items []Item
	for _, p := range strings.Split(content, "\n") {
		if strings.TrimSpace(p) == "" {
			continue
		}
		// DOCX has no page numbers; items carry no provenance.
		items = append(items, Item{Text: p})
	}
	return items, nil
}

func parsePPTX(path string) ([]Item, error) {
	f, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var items []Item
	slideNo := 0
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slideNo++
		slideText := extractTextFromXML(string(data))
		if strings.TrimSpace(slideText) == "" {
			continue
		}
		items = append(items, Item{
			Text: slideText,
			Prov: []Provenance{{PageNo: slideNo}},
		})
	}
	return items, nil
}

func parseXLSX(path string) ([]Item, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, err
	}

	var items []Item
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		items = append(items, Item{
			Text: text.String(),
			Prov: []Provenance{{PageNo: sheetNum + 1}},
		})
	}
	return items, nil
}

func parseODS(path string) ([]Item, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var items []Item
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		items = append(items, Item{
			Text: text.String(),
			Prov: []Provenance{{PageNo: sheetNum + 1}},
		})
	}
	return items, nil
}

func parseText(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	return []Item{{Text: string(data)}}, nil
}

func extractTextFromXML(xmlContent string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		if endIdx := strings.Index(part, "</a:t>"); endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return text.String()
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSpace(strings.ReplaceAll(base, "_", " "))
}
