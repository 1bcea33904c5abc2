package delimited

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
	"github.com/custodia-labs/postmetrics/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.UploadParser = (*Parser)(nil)

const (
	// DefaultMaxBytes caps how much of one upload is read.
	DefaultMaxBytes = 32 << 20

	// headerScanLines is how many leading lines may precede the header.
	headerScanLines = 15

	encodingUTF8        = "utf-8"
	encodingWindows1252 = "windows-1252"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// headerKeywords are column names, folded by foldCell, that mark a line as
// a likely header. They are matched against whole cells.
var headerKeywords = map[string]struct{}{
	"row labels": {}, "post id": {}, "account id": {}, "account username": {},
	"timestamp": {}, "date": {}, "publish time": {}, "permalink": {},
	"caption": {}, "description": {}, "post type": {}, "media type": {},
	"likes": {}, "comments": {}, "shares": {}, "saves": {}, "views": {},
	"impressions": {}, "reach": {}, "engagements": {}, "hashtags": {},
	"sum of 3-second video views": {}, "sum of reactions": {},
}

// dateShaped matches cells such as 2024-03-01 or 03/01/2024.
var dateShaped = regexp.MustCompile(`^\d{1,4}[-/.]\d{1,2}[-/.]\d{1,4}`)

// Parser decodes uploads into domain.RawUpload.
type Parser struct {
	maxBytes int64
}

// NewParser creates a parser that refuses uploads larger than maxBytes.
// A non-positive maxBytes uses DefaultMaxBytes.
func NewParser(maxBytes int64) *Parser {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Parser{maxBytes: maxBytes}
}

// Parse reads r fully and splits it into a header and data rows.
// Returns domain.ErrEmptyUpload when there is no header and
// domain.ErrUnreadableUpload when the content cannot be decoded.
func (p *Parser) Parse(name string, r io.Reader) (*domain.RawUpload, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", name, domain.ErrUnreadableUpload, err)
	}
	if int64(len(data)) > p.maxBytes {
		return nil, fmt.Errorf("%s: %w: larger than %d bytes", name, domain.ErrUnreadableUpload, p.maxBytes)
	}

	text, encoding, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", name, domain.ErrUnreadableUpload, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrEmptyUpload)
	}

	skip := FindHeaderLine(text)
	body := dropLines(text, skip)

	reader := csv.NewReader(strings.NewReader(body))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrEmptyUpload)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w: reading header: %w", name, domain.ErrUnreadableUpload, err)
	}
	headerLine, _ := reader.FieldPos(0)

	upload := &domain.RawUpload{
		Name:       name,
		Header:     cleanHeader(header),
		HeaderLine: headerLine + skip,
		Encoding:   encoding,
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", name, domain.ErrUnreadableUpload, err)
		}
		line, _ := reader.FieldPos(0)
		upload.Rows = append(upload.Rows, domain.RawRow{Line: line + skip, Cells: record})
	}

	return upload, nil
}

// decode strips a UTF-8 BOM and falls back to Windows-1252 for input
// that is not valid UTF-8.
func decode(data []byte) (string, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), encodingUTF8, nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("decoding %s: %w", encodingWindows1252, err)
	}
	return string(decoded), encodingWindows1252, nil
}

// FindHeaderLine returns the 0-based index of the header among the first
// lines of text. The first line is the header when it names a known column
// and holds no numbers or dates. Otherwise a line naming "row labels" or
// "post id" wins outright, then the first line with more than three commas,
// at least two known columns and no data cells. Defaults to 0.
func FindHeaderLine(text string) int {
	lines := strings.SplitN(text, "\n", headerScanLines+1)
	if len(lines) > headerScanLines {
		lines = lines[:headerScanLines]
	}

	if c := classifyLine(lines[0]); c.matches > 0 && !c.data {
		return 0
	}

	for i, line := range lines {
		c := classifyLine(line)
		if c.matches == 0 || c.data {
			continue
		}
		if c.anchor {
			return i
		}
		if strings.Count(line, ",") > 3 && c.matches >= 2 {
			return i
		}
	}
	return 0
}

// lineClass describes a candidate header line.
type lineClass struct {
	matches int  // cells that are header keywords
	anchor  bool // a cell is "row labels" or "post id"
	data    bool // a cell holds a number or a date
}

func classifyLine(line string) lineClass {
	var c lineClass
	for _, cell := range splitLine(line) {
		cell = strings.TrimSpace(strings.ReplaceAll(cell, `"`, ""))
		folded := foldCell(cell)
		if _, ok := headerKeywords[folded]; ok {
			c.matches++
		}
		if folded == "row labels" || folded == "post id" {
			c.anchor = true
		}
		if looksLikeData(cell) {
			c.data = true
		}
	}
	return c
}

func splitLine(line string) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	cells, err := r.Read()
	if err != nil {
		return strings.Split(line, ",")
	}
	return cells
}

// foldCell lower-cases a header cell and treats underscores as spaces, so
// "post_id" and "Post ID" fold alike.
func foldCell(cell string) string {
	return strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(cell, "_", " ")), " "))
}

func looksLikeData(cell string) bool {
	if cell == "" {
		return false
	}
	if _, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64); err == nil {
		return true
	}
	return dateShaped.MatchString(cell)
}

// dropLines removes the first n lines of text.
func dropLines(text string, n int) string {
	for ; n > 0; n-- {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			return ""
		}
		text = text[idx+1:]
	}
	return text
}

func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(strings.ReplaceAll(h, `"`, ""))
	}
	return out
}
