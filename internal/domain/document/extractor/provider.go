package extractor

import (
	"regexp"
	"strings"
)

// ProviderPattern maps a provider's textual signature to its display name.
type ProviderPattern struct {
	Pattern *regexp.Regexp
	Name    string
	Kind    string
}

// ProviderDetector recognizes utility and telecom providers on a bill.
type ProviderDetector struct {
	patterns []ProviderPattern
}

// NewProviderDetector creates a detector with the Uruguayan providers seen on bills.
func NewProviderDetector() *ProviderDetector {
	return &ProviderDetector{patterns: defaultProviderPatterns()}
}

// Detect returns the provider whose signature appears earliest in text.
// When no known signature matches, a "Proveedor:"/"Empresa:" label is used.
func (d *ProviderDetector) Detect(text string) (string, bool) {
	best, bestPos := "", -1
	for _, p := range d.patterns {
		loc := p.Pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if bestPos == -1 || loc[0] < bestPos {
			best, bestPos = p.Name, loc[0]
		}
	}
	if bestPos >= 0 {
		return best, true
	}

	if m := providerLabelPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

var providerLabelPattern = regexp.MustCompile(`(?i)(?:proveedor|empresa)\s*:\s*([^\n\r]+)`)

func defaultProviderPatterns() []ProviderPattern {
	return []ProviderPattern{
		// Telecom
		{regexp.MustCompile(`(?i)\bANTEL\b`), "Antel", "Telecom"},
		{regexp.MustCompile(`(?i)\bMOVISTAR\b|TELEF[OÓ]NICA\s+M[OÓ]VILES`), "Movistar", "Telecom"},
		{regexp.MustCompile(`(?i)\bCLARO\b`), "Claro", "Telecom"},
		{regexp.MustCompile(`(?i)\bDIRECTV\b`), "DirecTV", "Telecom"},

		// Energy & water
		{regexp.MustCompile(`(?i)\bUTE\b`), "UTE", "Electricity"},
		{regexp.MustCompile(`(?i)\bOSE\b`), "OSE", "Water"},
		{regexp.MustCompile(`(?i)MONTEVIDEO\s+GAS`), "Montevideo Gas", "Gas"},

		// Municipal
		{regexp.MustCompile(`(?i)INTENDENCIA\s+DE\s+\p{L}+`), "Intendencia", "Municipal"},
	}
}
