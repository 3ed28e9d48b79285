// Package reconcile binds uploaded documents to pending ledger obligations.
// A document matches an obligation when its text shows the obligation's
// amount together with its name or its due date.
package reconcile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/document/extractor"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/document/normalizer"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/pkg/money"
)

var spanishMonths = [...]string{
	"ENERO", "FEBRERO", "MARZO", "ABRIL", "MAYO", "JUNIO",
	"JULIO", "AGOSTO", "SETIEMBRE", "OCTUBRE", "NOVIEMBRE", "DICIEMBRE",
}

// Evidence records which match conditions an obligation satisfied.
type Evidence struct {
	Amount bool `json:"amount"`
	Name   bool `json:"name"`
	Date   bool `json:"date"`
}

// Matched reports whether the conjunctive rule holds: amount AND (name OR date).
func (e Evidence) Matched() bool {
	return e.Amount && (e.Name || e.Date)
}

func (e Evidence) count() int {
	n := 0
	for _, ok := range []bool{e.Amount, e.Name, e.Date} {
		if ok {
			n++
		}
	}
	return n
}

// Candidate is a pending obligation that satisfied the match rule.
type Candidate struct {
	Obligation ledger.PendingObligation `json:"obligation"`
	Evidence   Evidence                 `json:"evidence"`
}

// Evaluate tests text against one obligation. fields may be nil; when present
// its extracted dates also count as showing the due date.
func Evaluate(text string, fields *extractor.Fields, o ledger.PendingObligation) Evidence {
	norm := normalizer.Normalize(text)
	return evaluate(norm, extractedDates(fields), o)
}

func evaluate(norm string, dates []time.Time, o ledger.PendingObligation) Evidence {
	var e Evidence

	for _, amount := range []*money.Money{o.Amount, o.ForeignAmount} {
		if amount == nil {
			continue
		}
		for _, r := range amountRenderings(amount) {
			if containsNumber(norm, r) {
				e.Amount = true
				break
			}
		}
	}

	if name := normalizer.Normalize(o.Source.Name); name != "" {
		e.Name = strings.Contains(norm, name)
	}

	for _, r := range DateRenderings(o.DueDate) {
		if strings.Contains(norm, r) {
			e.Date = true
			break
		}
	}
	if !e.Date {
		due := ledger.DateOf(o.DueDate)
		for _, d := range dates {
			if d.Equal(due) {
				e.Date = true
				break
			}
		}
	}

	return e
}

// Candidates returns every obligation satisfying the match rule, best first:
// more satisfied conditions, then overdue before upcoming, then earliest due
// date, then input order.
func Candidates(text string, fields *extractor.Fields, pending []ledger.PendingObligation) []Candidate {
	norm := normalizer.Normalize(text)
	dates := extractedDates(fields)

	var out []Candidate
	for _, o := range pending {
		if e := evaluate(norm, dates, o); e.Matched() {
			out = append(out, Candidate{Obligation: o, Evidence: e})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ca, cb := a.Evidence.count(), b.Evidence.count(); ca != cb {
			return ca > cb
		}
		if a.Obligation.IsOverdue != b.Obligation.IsOverdue {
			return a.Obligation.IsOverdue
		}
		return a.Obligation.DueDate.Before(b.Obligation.DueDate)
	})
	return out
}

// MatchUpload returns the obligation the document pays, or nil when none
// satisfies the match rule.
func MatchUpload(text string, fields *extractor.Fields, pending []ledger.PendingObligation) *ledger.PendingObligation {
	candidates := Candidates(text, fields, pending)
	if len(candidates) == 0 {
		return nil
	}
	o := candidates[0].Obligation
	return &o
}

// DateRenderings are the normalized forms a due date is printed in:
// "03/01/2025", "03-01-2025" and "3 DE ENERO DE 2025".
func DateRenderings(t time.Time) []string {
	long := fmt.Sprintf("%d DE %s DE %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
	return []string{
		t.Format("02/01/2006"),
		t.Format("02-01-2006"),
		long,
	}
}

func amountRenderings(m *money.Money) []string {
	out := m.Renderings()
	if m.Amount()%100 != 0 {
		return out
	}
	whole := m.Amount() / 100
	if whole < 0 {
		whole = -whole
	}
	plain := strconv.FormatInt(whole, 10)
	out = append(out, plain)
	if len(plain) > 3 {
		out = append(out, groupThousands(plain, "."), groupThousands(plain, ","))
	}
	return out
}

func groupThousands(digits, sep string) string {
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// containsNumber reports whether num occurs in text as a whole number, so
// "541.72" is not found inside "1.541,72" or "2541.72".
func containsNumber(text, num string) bool {
	for start := 0; start < len(text); {
		i := strings.Index(text[start:], num)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(num)
		if !continuesBefore(text, i) && !continuesAfter(text, end) {
			return true
		}
		start = i + 1
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func continuesBefore(text string, i int) bool {
	if i == 0 {
		return false
	}
	prev := text[i-1]
	if isDigit(prev) {
		return true
	}
	return (prev == '.' || prev == ',') && i >= 2 && isDigit(text[i-2])
}

func continuesAfter(text string, end int) bool {
	if end >= len(text) {
		return false
	}
	next := text[end]
	if isDigit(next) {
		return true
	}
	return (next == '.' || next == ',') && end+1 < len(text) && isDigit(text[end+1])
}

func extractedDates(fields *extractor.Fields) []time.Time {
	if fields == nil {
		return nil
	}
	var out []time.Time
	for _, raw := range fields.Dates {
		if t, ok := ParseDate(raw); ok {
			out = append(out, t)
		}
	}
	return out
}

// ParseDate reads the date shapes the extractor emits.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"02/01/2006", "02-01-2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	parts := strings.Fields(normalizer.Normalize(raw))
	if len(parts) != 5 || parts[1] != "DE" || parts[3] != "DE" {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(parts[4])
	if err != nil {
		return time.Time{}, false
	}
	for i, name := range spanishMonths {
		if parts[2] == name || (name == "SETIEMBRE" && parts[2] == "SEPTIEMBRE") {
			month := time.Month(i + 1)
			if day < 1 || day > ledger.DaysIn(year, month) {
				return time.Time{}, false
			}
			return ledger.Date(year, month, day), true
		}
	}
	return time.Time{}, false
}
