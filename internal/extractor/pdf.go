// Package extractor decodes statement PDFs into positioned text spans and
// per-page text.
package extractor

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/colinbendell/bank-statement-processor/internal/layout"
	"github.com/colinbendell/bank-statement-processor/internal/models"
)

// ErrNoText is returned for PDFs without a usable text layer, typically
// scanned statements.
var ErrNoText = errors.New("no readable text in PDF")

const defaultPageHeight = 792.0 // US Letter

// Open decodes the PDF at path. The document Source is left empty so the
// pipeline can derive one from the statement itself.
func Open(path string) (models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Document{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return models.Document{}, err
	}
	pages, err := Read(f, info.Size())
	if err != nil {
		return models.Document{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return models.Document{Pages: pages}, nil
}

// Read decodes a PDF of the given size.
func Read(r io.ReaderAt, size int64) (pages []models.Page, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("PDF library crashed: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	n := reader.NumPage()
	if n == 0 {
		return nil, errors.New("PDF has no pages")
	}

	for i := 1; i <= n; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		spans := mergeGlyphs(p.Content().Text, pageHeight(p.V))
		pages = append(pages, models.Page{
			Number: i,
			Spans:  spans,
			Text:   pageText(spans),
		})
	}

	if !readable(pages) {
		return nil, ErrNoText
	}
	return pages, nil
}

// pageHeight reads the MediaBox, which may be inherited from the page tree.
func pageHeight(v pdf.Value) float64 {
	for node := v; !node.IsNull(); node = node.Key("Parent") {
		box := node.Key("MediaBox")
		if box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
	}
	return defaultPageHeight
}

// mergeGlyphs joins glyph runs into spans of text set in the same font on
// the same baseline. Small gaps become a space; wide gaps start a new span.
// PDF coordinates grow upward from the baseline, so span Y is flipped to the
// top edge of the text measured from the top of the page.
func mergeGlyphs(glyphs []pdf.Text, height float64) []models.TextSpan {
	var spans []models.TextSpan
	var cur strings.Builder
	var start, prev pdf.Text
	open := false

	flush := func() {
		if open {
			if text := strings.TrimSpace(cur.String()); text != "" {
				spans = append(spans, models.TextSpan{
					Text: text,
					X:    start.X,
					Y:    height - (start.Y + start.FontSize),
				})
			}
		}
		cur.Reset()
		open = false
	}

	for _, g := range glyphs {
		if g.S == "" || (!open && strings.TrimSpace(g.S) == "") {
			continue
		}
		if open {
			size := math.Max(prev.FontSize, 1)
			gap := g.X - (prev.X + prev.W)
			sameLine := math.Abs(g.Y-prev.Y) < size*0.3 && g.Font == prev.Font && g.FontSize == prev.FontSize
			switch {
			case !sameLine || gap > size || gap < -size:
				flush()
			case gap > size*0.2 && !strings.HasSuffix(cur.String(), " ") && g.S != " ":
				cur.WriteByte(' ')
			}
		}
		if !open {
			start, open = g, true
		}
		cur.WriteString(g.S)
		prev = g
	}
	flush()
	return spans
}

// pageText renders spans as lines in reading order for header scans.
func pageText(spans []models.TextSpan) string {
	rows := layout.GroupRows(spans, layout.DefaultYTolerance)
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, row.Text())
	}
	return strings.Join(lines, "\n")
}

// commonWords appear in virtually every bank statement.
var commonWords = []string{
	"bank", "account", "balance", "date", "payment", "statement",
	"total", "amount", "credit", "debit", "transaction", "deposit",
	"withdrawal", "opening", "closing", "transfer", "number", "page", "period",
}

// readable rejects empty text layers and glyph soup from fonts without a
// Unicode mapping.
func readable(pages []models.Page) bool {
	var total, good int
	var all strings.Builder
	for _, p := range pages {
		all.WriteString(strings.ToLower(p.Text))
		all.WriteByte('\n')
		for _, r := range p.Text {
			total++
			if r < 0x80 || strings.ContainsRune("£€$", r) {
				good++
			}
		}
	}
	if total <= 50 || float64(good)/float64(total) <= 0.6 {
		return false
	}
	text := all.String()
	for _, w := range commonWords {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
