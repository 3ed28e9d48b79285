// Package extractor pulls candidate dates, amounts and reference numbers out of
// transcribed document text. Extraction is heuristic and never fails: a field
// that cannot be found is left empty.
package extractor

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/document"
)

// Fields holds the raw strings found in a document. Amounts are not parsed here.
type Fields struct {
	Dates          []string `json:"dates"`
	Amounts        []string `json:"amounts"`
	DocumentNumber *string  `json:"document_number"`

	// loan
	InterestRate *string `json:"interest_rate,omitempty"`
	Installments *string `json:"installments,omitempty"`

	// credit_card
	DueDate        *string `json:"due_date,omitempty"`
	MinimumPayment *string `json:"minimum_payment,omitempty"`

	// utility_bill
	ServiceProvider *string `json:"service_provider,omitempty"`
	ServicePeriod   *string `json:"service_period,omitempty"`
}

// number matches "1.916,39", "1,916.39", "1916.39" and "12.000".
const number = `(?:\d{1,3}(?:[.,]\d{3})+|\d+)(?:[.,]\d{2})?`

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{2}/\d{2}/\d{4}`),
		regexp.MustCompile(`\d{2}-\d{2}-\d{4}`),
		regexp.MustCompile(`\d{1,2}\s+de\s+[A-Za-zÀ-ÿ]+\s+de\s+\d{4}`),
	}

	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\$\s*` + number),
		regexp.MustCompile(`USD\s*` + number),
		regexp.MustCompile(`(?i)\b` + number + `\s*(?:PESOS|D[ÓO]LARES)`),
	}

	documentNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:N°|Nro\.|N[úu]mero):\s*\d+`),
		regexp.MustCompile(`(?i)(?:Factura|Recibo|Comprobante)\s*#?\s*\d+`),
	}

	interestRatePattern  = regexp.MustCompile(`(?i)(?:\bT\.?E\.?A\.?\b|TASA(?:\s+EFECTIVA\s+ANUAL)?|INTER[EÉ]S)[^0-9%\n]{0,20}(\d{1,3}(?:[.,]\d{1,2})?)\s*%`)
	installmentsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)cuota\s*(?:n[°º]?\s*)?\d{1,3}\s*(?:de|/)\s*(\d{1,3})`),
		regexp.MustCompile(`(?i)(\d{1,3})\s*cuotas`),
	}

	dueDatePattern        = regexp.MustCompile(`(?i)(?:fecha\s+de\s+)?vencimiento\s*:?\s*(\d{2}[/-]\d{2}[/-]\d{4})`)
	minimumPaymentPattern = regexp.MustCompile(`(?i)pago\s+m[íi]nimo\s*:?\s*((?:\$|USD)?\s*` + number + `)`)

	servicePeriodPattern = regexp.MustCompile(`(?i)per[íi]odo(?:\s+de\s+facturaci[óo]n)?\s*:?\s*(\d{2}/\d{2}/\d{4}\s*(?:al|a|-)\s*\d{2}/\d{2}/\d{4}|\d{2}/\d{4}|[A-Za-zÀ-ÿ]+(?:\s+de)?\s+\d{4})`)
)

var defaultProviders = NewProviderDetector()

// Extract collects the generic fields plus the ones specific to docType.
func Extract(raw string, docType document.Type) *Fields {
	f := &Fields{
		Dates:          findAll(raw, datePatterns),
		Amounts:        findAll(raw, amountPatterns),
		DocumentNumber: findFirst(raw, documentNumberPatterns),
	}

	switch docType {
	case document.TypeLoan:
		f.InterestRate = submatch(raw, interestRatePattern, func(v string) string { return v + "%" })
		for _, re := range installmentsPatterns {
			if f.Installments = submatch(raw, re, nil); f.Installments != nil {
				break
			}
		}
	case document.TypeCreditCard:
		f.DueDate = submatch(raw, dueDatePattern, nil)
		f.MinimumPayment = submatch(raw, minimumPaymentPattern, strings.TrimSpace)
	case document.TypeUtilityBill:
		if name, ok := defaultProviders.Detect(raw); ok {
			f.ServiceProvider = &name
		}
		f.ServicePeriod = submatch(raw, servicePeriodPattern, strings.TrimSpace)
	}

	return f
}

// findAll concatenates the matches of each pattern in order; duplicates are kept.
func findAll(text string, patterns []*regexp.Regexp) []string {
	out := []string{}
	for _, re := range patterns {
		out = append(out, re.FindAllString(text, -1)...)
	}
	return out
}

func findFirst(text string, patterns []*regexp.Regexp) *string {
	for _, re := range patterns {
		if m := re.FindString(text); m != "" {
			return &m
		}
	}
	return nil
}

func submatch(text string, re *regexp.Regexp, format func(string) string) *string {
	m := re.FindStringSubmatch(text)
	if m == nil || len(m) < 2 || m[1] == "" {
		return nil
	}
	v := m[1]
	if format != nil {
		v = format(v)
	}
	return &v
}
