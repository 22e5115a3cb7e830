package analysis

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF assembles a minimal single-page PDF carrying the given text,
// with a correct cross-reference table
func buildPDF(t *testing.T, text string) []byte {
	t.Helper()

	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)

	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
			"/Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>\nendobj\n",
		fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(content), content),
		"5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica " +
			"/Encoding /WinAnsiEncoding >>\nendobj\n",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		buf.WriteString(obj)
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xrefStart)

	return buf.Bytes()
}

func TestLoadDocumentPlainText(t *testing.T) {
	text := "SECTION 1. COMPENSATION\n\nThe Contractor shall be paid monthly."

	units, err := LoadDocument(strings.NewReader(text), "contract.txt")
	require.NoError(t, err)

	require.Len(t, units, 1)
	assert.Equal(t, "page-1", units[0].ID)
	assert.Equal(t, text, units[0].Text)
	assert.Equal(t, 1, units[0].Location.Page)
	assert.Equal(t, 0, units[0].Location.Offset)
}

func TestLoadDocumentEmptyInput(t *testing.T) {
	_, err := LoadDocument(bytes.NewReader(nil), "contract.txt")
	assert.ErrorIs(t, err, ErrUnreadableDocument)
}

func TestLoadDocumentWhitespaceOnly(t *testing.T) {
	_, err := LoadDocument(strings.NewReader("   \n\t\n  "), "contract.txt")
	assert.ErrorIs(t, err, ErrUnreadableDocument)
}

func TestLoadDocumentInvalidUTF8(t *testing.T) {
	_, err := LoadDocument(bytes.NewReader([]byte{0xff, 0xfe, 0xfd}), "contract.txt")
	assert.ErrorIs(t, err, ErrUnreadableDocument)
}

func TestLoadDocumentPDF(t *testing.T) {
	data := buildPDF(t, "Company may terminate immediately for Poor-Quality Work.")

	units, err := LoadDocument(bytes.NewReader(data), "contract.pdf")
	require.NoError(t, err)

	require.Len(t, units, 1)
	assert.Equal(t, "page-1", units[0].ID)
	assert.Equal(t, 1, units[0].Location.Page)
	assert.Contains(t, units[0].Text, "terminate immediately")
}

func TestLoadDocumentTruncatedPDF(t *testing.T) {
	// A valid header with a broken body must fail as unreadable, never
	// crash the run, regardless of how the parser reacts internally
	data := buildPDF(t, "Some clause text.")
	for _, cut := range []int{20, len(data) / 2, len(data) - 10} {
		_, err := LoadDocument(bytes.NewReader(data[:cut]), "contract.pdf")
		assert.ErrorIs(t, err, ErrUnreadableDocument, "truncated at %d bytes", cut)
	}
}

func TestLoadDocumentCorruptPDF(t *testing.T) {
	// Carries the PDF magic bytes but no valid structure
	_, err := LoadDocument(strings.NewReader("%PDF-1.7 garbage"), "contract.pdf")
	assert.ErrorIs(t, err, ErrUnreadableDocument)
}

func TestLoadDocumentPDFExtensionWithoutMagic(t *testing.T) {
	// A .pdf filename routes to the PDF parser even without magic
	// bytes, and fails as unreadable rather than being misread as text
	_, err := LoadDocument(strings.NewReader("just plain text"), "scan.pdf")
	assert.ErrorIs(t, err, ErrUnreadableDocument)
}
