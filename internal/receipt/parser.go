// Package receipt extracts a transaction draft from an uploaded
// receipt PDF. Extraction is best effort: whatever fields cannot be
// recognized are left empty for the user to fill in.
package receipt

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"fintrack/internal/core"
)

// Draft is the pre-filled transaction form recovered from a receipt.
type Draft struct {
	Merchant string
	Amount   core.Money
	Date     core.Date
	RawText  string
}

var (
	totalPattern = regexp.MustCompile(`(?i)(?:total|amount\s+due|grand\s+total|balance\s+due)\s*:?\s*(?:[$€£]\s*)?(\d+[.,]\d{2})`)
	// Any decimal amount, used as fallback when no total line exists.
	amountPattern = regexp.MustCompile(`(?:[$€£]\s*)?(\d+[.,]\d{2})`)
	datePatterns  = []struct {
		re     *regexp.Regexp
		layout string
	}{
		{regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`), "2006-01-02"},
		{regexp.MustCompile(`\b(\d{2}/\d{2}/\d{4})\b`), "01/02/2006"},
		{regexp.MustCompile(`\b(\d{2}\.\d{2}\.\d{4})\b`), "02.01.2006"},
	}
)

// ParseFile extracts a draft from a PDF on disk.
func ParseFile(path string) (Draft, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Draft{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	return parseReader(r)
}

// ParseReader extracts a draft from an in-memory PDF, as uploaded over
// HTTP.
func ParseReader(rd io.Reader) (Draft, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return Draft{}, fmt.Errorf("read pdf: %w", err)
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Draft{}, fmt.Errorf("open pdf: %w", err)
	}
	return parseReader(r)
}

func parseReader(r *pdf.Reader) (Draft, error) {
	var sb strings.Builder
	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		p := r.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return Draft{}, fmt.Errorf("extract text from page %d: %w", pageIndex, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return ParseText(sb.String()), nil
}

// ParseText recognizes merchant, amount and date in extracted receipt
// text. The merchant is taken to be the first non-empty line.
func ParseText(text string) Draft {
	draft := Draft{RawText: text}

	lines := strings.Split(text, "\n")
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			draft.Merchant = trimmed
			break
		}
	}

	draft.Amount = findAmount(text)
	draft.Date = findDate(text)
	return draft
}

func findAmount(text string) core.Money {
	if m := totalPattern.FindStringSubmatch(text); m != nil {
		if cents, err := core.ParseDecimalToCents(m[1]); err == nil {
			return core.Money{Cents: cents}
		}
	}

	// No total line: take the largest amount on the receipt.
	var best int64
	for _, m := range amountPattern.FindAllStringSubmatch(text, -1) {
		cents, err := core.ParseDecimalToCents(m[1])
		if err != nil {
			continue
		}
		if cents > best {
			best = cents
		}
	}
	return core.Money{Cents: best}
}

func findDate(text string) core.Date {
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		t, err := time.Parse(p.layout, m[1])
		if err != nil {
			continue
		}
		return core.DateOf(t)
	}
	return core.Date{}
}
