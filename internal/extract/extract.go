// Package extract turns uploaded resume documents into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MIMEText = "text/plain"
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrUnsupportedType is returned for documents that are neither PDF, DOCX nor text.
var ErrUnsupportedType = errors.New("unsupported document type")

// ErrEmptyDocument is returned when a document yields no text.
var ErrEmptyDocument = errors.New("document contains no text")

// Document is the text of an uploaded file. Pages is known for PDFs only.
type Document struct {
	Name  string `json:"name"`
	MIME  string `json:"mime"`
	Text  string `json:"text"`
	Pages int    `json:"pages"`
}

// Text extracts the text of data. The type is taken from the file extension
// and falls back to content sniffing.
func Text(name string, data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	mime := DetectType(name, data)

	doc := &Document{Name: name, MIME: mime}
	var (
		text string
		err  error
	)
	switch mime {
	case MIMEPDF:
		text, doc.Pages, err = pdfText(data)
	case MIMEDOCX:
		text, err = docxText(data)
	case MIMEText:
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%w: text is not valid UTF-8", ErrUnsupportedType)
		}
		text = string(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mime)
	}
	if err != nil {
		return nil, err
	}

	doc.Text = normalize(text)
	if strings.TrimSpace(doc.Text) == "" {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

// DetectType returns the MIME type used to pick an extractor.
func DetectType(name string, data []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return MIMEPDF
	case ".docx":
		return MIMEDOCX
	case ".txt", ".md", ".text":
		return MIMEText
	}

	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return MIMEPDF
	}

	sniffed := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(sniffed, "application/zip"):
		// DOCX is a zip container; anything else fails in the docx reader.
		return MIMEDOCX
	case strings.HasPrefix(sniffed, "text/plain"):
		return MIMEText
	}
	media, _, _ := strings.Cut(sniffed, ";")
	return media
}

func pdfText(data []byte) (string, int, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("read pdf: %w", err)
	}

	var b strings.Builder
	pages := r.NumPage()
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", 0, fmt.Errorf("read pdf page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), pages, nil
}

var (
	paragraphEnd = regexp.MustCompile(`</w:p>`)
	lineBreak    = regexp.MustCompile(`<w:(br|tab)[^>]*/>`)
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
)

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}
	defer doc.Close()

	return docxXMLToText(doc.Editable().GetContent()), nil
}

// docxXMLToText flattens WordprocessingML into one line per paragraph.
func docxXMLToText(content string) string {
	content = paragraphEnd.ReplaceAllString(content, "\n")
	content = lineBreak.ReplaceAllStringFunc(content, func(tag string) string {
		if strings.HasPrefix(tag, "<w:tab") {
			return "\t"
		}
		return "\n"
	})
	content = xmlTag.ReplaceAllString(content, "")
	return html.UnescapeString(content)
}

// normalize unifies line endings and odd spaces. Tabs and runs of spaces are
// kept since the ATS checks score them.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.NewReplacer("\u00a0", " ", "\u200b", "", "\x00", "").Replace(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
