package analysis

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Location traces a unit of text back to its origin in the source
// document
type Location struct {
	Page   int `json:"page"`
	Offset int `json:"offset"` // rune offset of the unit within the full text
}

// Unit is one loader output: a page (or page-equivalent block) of raw
// contract text with a stable identifier
type Unit struct {
	ID       string
	Text     string
	Location Location
}

// LoadDocument reads a contract document and returns its text as an
// ordered sequence of page units. PDF input is extracted per page;
// anything else is treated as plain UTF-8 text. Returns
// ErrUnreadableDocument for empty, corrupt, or undecodable input.
func LoadDocument(r io.Reader, filename string) ([]Unit, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrUnreadableDocument)
	}

	if isPDF(data, filename) {
		return loadPDF(data)
	}
	return loadText(data)
}

// isPDF checks the magic bytes first and falls back to the extension
func isPDF(data []byte, filename string) bool {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return true
	}
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

func loadPDF(data []byte) (units []Unit, err error) {
	// The PDF parser panics on some malformed inputs; uploads are
	// untrusted, so a panic here is just another unreadable document.
	defer func() {
		if r := recover(); r != nil {
			units = nil
			err = fmt.Errorf("%w: malformed PDF: %v", ErrUnreadableDocument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	units = make([]Unit, 0, reader.NumPage())
	offset := 0
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page is skipped; the document may
			// still carry enough text on its other pages.
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		units = append(units, Unit{
			ID:       fmt.Sprintf("page-%d", pageNum),
			Text:     text,
			Location: Location{Page: pageNum, Offset: offset},
		})
		offset += utf8.RuneCountInString(text)
	}

	if len(units) == 0 {
		return nil, fmt.Errorf("%w: no text could be extracted", ErrUnreadableDocument)
	}

	return units, nil
}

func loadText(data []byte) ([]Unit, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: input is not valid UTF-8", ErrUnreadableDocument)
	}

	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: input contains no text", ErrUnreadableDocument)
	}

	return []Unit{{
		ID:       "page-1",
		Text:     text,
		Location: Location{Page: 1, Offset: 0},
	}}, nil
}
