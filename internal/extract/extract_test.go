package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextPlain(t *testing.T) {
	t.Parallel()

	doc, err := Text("resume.txt", []byte("Jane Doe\r\nGo engineer   \r\n\r\nSkills\tGo, SQL\r\n"))
	require.NoError(t, err)

	assert.Equal(t, MIMEText, doc.MIME)
	assert.Equal(t, 0, doc.Pages)
	assert.Equal(t, "Jane Doe\nGo engineer\n\nSkills\tGo, SQL", doc.Text)
}

func TestTextSniffsWithoutExtension(t *testing.T) {
	t.Parallel()

	doc, err := Text("upload", []byte("plain resume text"))
	require.NoError(t, err)
	assert.Equal(t, MIMEText, doc.MIME)
}

func TestTextRejectsUnsupported(t *testing.T) {
	t.Parallel()

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	_, err := Text("photo.png", png)
	require.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Text("resume.txt", []byte{0xff, 0xfe, 0xfd})
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestTextRejectsEmpty(t *testing.T) {
	t.Parallel()

	_, err := Text("resume.txt", nil)
	require.ErrorIs(t, err, ErrEmptyDocument)

	_, err = Text("resume.txt", []byte(" \n\t\n"))
	require.ErrorIs(t, err, ErrEmptyDocument)
}

func TestTextBrokenPDF(t *testing.T) {
	t.Parallel()

	_, err := Text("resume.pdf", []byte("%PDF-1.4 truncated"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedType)
}

func TestDetectType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
		data []byte
		want string
	}{
		{name: "pdf extension", file: "cv.PDF", want: MIMEPDF},
		{name: "docx extension", file: "cv.docx", want: MIMEDOCX},
		{name: "markdown", file: "cv.md", want: MIMEText},
		{name: "pdf magic", file: "cv", data: []byte("%PDF-1.7\n"), want: MIMEPDF},
		{name: "zip magic", file: "cv", data: []byte("PK\x03\x04rest"), want: MIMEDOCX},
		{name: "html", file: "cv", data: []byte("<html><body>x</body></html>"), want: "text/html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DetectType(tt.file, tt.data))
		})
	}
}

func TestDocxXMLToText(t *testing.T) {
	t.Parallel()

	xml := `<w:document><w:body>` +
		`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Skills</w:t><w:tab/><w:t>Go &amp; SQL</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Line one</w:t><w:br/><w:t>Line two</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	got := normalize(docxXMLToText(xml))
	assert.Equal(t, "Jane Doe\nSkills\tGo & SQL\nLine one\nLine two", got)
}

func TestTextDocx(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><w:document><w:body>` +
		`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p><w:p><w:r><w:t>Experience</w:t></w:r></w:p>` +
		`</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	doc, err := Text("resume.docx", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, MIMEDOCX, doc.MIME)
	assert.Equal(t, "Jane Doe\nExperience", doc.Text)
}
