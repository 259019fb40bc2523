package preview

import "fmt"

// Document is a rendered preview ready to hand to a browser, printer or file.
type Document struct {
	Format      Format
	ContentType string
	FileName    string
	Body        []byte
}

// Encode renders p in format. name is the file name without extension.
func Encode(p Preview, format Format, name string) (Document, error) {
	doc := Document{Format: format}
	switch format {
	case FormatHTML:
		body, err := HTML(p)
		if err != nil {
			return Document{}, fmt.Errorf("render html: %w", err)
		}
		doc.ContentType = "text/html; charset=utf-8"
		doc.FileName = name + ".html"
		doc.Body = body
	case FormatPDF:
		body, err := PDF(p)
		if err != nil {
			return Document{}, fmt.Errorf("render pdf: %w", err)
		}
		doc.ContentType = "application/pdf"
		doc.FileName = name + ".pdf"
		doc.Body = body
	case FormatText:
		doc.ContentType = "text/plain; charset=utf-8"
		doc.FileName = name + ".txt"
		doc.Body = []byte(Text(p))
	case FormatESCPOS:
		doc.ContentType = "application/octet-stream"
		doc.FileName = name + ".bin"
		doc.Body = ESCPOS(p)
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return doc, nil
}
