package classifier

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/document"
)

func TestClassify_SalaryAdvanceOnly(t *testing.T) {
	c := NewDefault()

	results := c.Classify("UTILIZACIÓN ADELANTO DE SUELDO")

	require.Len(t, results, 1)
	assert.Equal(t, document.TypeSalaryAdvance, results[0].Type)
	assert.Equal(t, document.CategoryIncome, results[0].Category)
	assert.InDelta(t, 50.0, results[0].Confidence, 1e-9)
	assert.ElementsMatch(t, []string{"UTILIZACIÓN ADELANTO DE SUELDO", "ADELANTO DE SUELDO"}, results[0].MatchedKeywords)
	assert.NotNil(t, results[0].Details)
}

func TestClassify_EmptyYieldsSentinel(t *testing.T) {
	results := NewDefault().Classify("")

	require.Len(t, results, 1)
	assert.Equal(t, Unknown(), results[0])
	assert.True(t, results[0].IsUnknown())
	assert.Equal(t, document.CategoryUnclassified, results[0].Category)
	assert.Zero(t, results[0].Confidence)
	assert.Nil(t, results[0].Details)
}

func TestClassify_NoMatch(t *testing.T) {
	results := NewDefault().Classify("hello world 123")
	require.Len(t, results, 1)
	assert.True(t, results[0].IsUnknown())
}

func TestClassify_SharedKeywordsRankByCoverage(t *testing.T) {
	text := "Estado de cuenta - Saldo anterior - Saldo actual - Movimientos - Débitos - Créditos - Transferencias"

	results := NewDefault().Classify(text)

	require.Len(t, results, 3)
	assert.Equal(t, document.TypeBankStatement, results[0].Type)
	assert.Equal(t, 100.0, results[0].Confidence)

	assert.Equal(t, document.TypeCreditCard, results[1].Type)
	assert.InDelta(t, 100.0*2/6, results[1].Confidence, 1e-9)

	// "CRÉDITO" is contained in "CRÉDITOS"
	assert.Equal(t, document.TypeLoan, results[2].Type)
	assert.InDelta(t, 12.5, results[2].Confidence, 1e-9)
}

func TestClassify_FullVocabularyScoresHundred(t *testing.T) {
	text := "RECIBO DE SUELDO - NÓMINA - SALARIO - HABERES - DEDUCCIONES - LÍQUIDO A COBRAR"

	results := NewDefault().Classify(text)

	require.Len(t, results, 2)
	assert.Equal(t, document.TypeSalaryReceipt, results[0].Type)
	assert.Equal(t, 100.0, results[0].Confidence)
	assert.Equal(t, document.TypePaymentReceipt, results[1].Type)
	assert.InDelta(t, 20.0, results[1].Confidence, 1e-9)
}

func TestClassify_TiesKeepLibraryOrder(t *testing.T) {
	results := NewDefault().Classify("facturación")

	require.Len(t, results, 2)
	assert.Equal(t, document.TypePurchase, results[0].Type)
	assert.Equal(t, document.TypeUtilityBill, results[1].Type)
	assert.Equal(t, results[0].Confidence, results[1].Confidence)
}

func TestClassify_AttachesTypeSpecificFields(t *testing.T) {
	text := "PRÉSTAMO PERSONAL - PLAN DE PAGOS\nTEA: 29%\n10 cuotas de $ 1.411,58\nVence 01/01/2025"

	best := Best(NewDefault().Classify(text))

	require.Equal(t, document.TypeLoan, best.Type)
	require.NotNil(t, best.Details)
	require.NotNil(t, best.Details.InterestRate)
	assert.Equal(t, "29%", *best.Details.InterestRate)
	assert.Equal(t, []string{"01/01/2025"}, best.Details.Dates)
	assert.Equal(t, []string{"$ 1.411,58"}, best.Details.Amounts)
}

func TestClassify_Properties(t *testing.T) {
	c := NewDefault()
	faker := gofakeit.New(11)

	vocabulary := make([]string, 0)
	for _, p := range DefaultPatterns() {
		vocabulary = append(vocabulary, p.Keywords...)
	}

	for i := 0; i < 300; i++ {
		parts := []string{faker.Sentence(6)}
		for j := 0; j < faker.Number(0, 6); j++ {
			kw := vocabulary[faker.Number(0, len(vocabulary)-1)]
			if faker.Bool() {
				kw = strings.ToLower(kw)
			}
			parts = append(parts, kw)
		}
		text := strings.Join(parts, " ")

		results := c.Classify(text)
		require.NotEmpty(t, results, text)

		for k, r := range results {
			assert.GreaterOrEqual(t, r.Confidence, 0.0)
			assert.LessOrEqual(t, r.Confidence, 100.0)
			if k > 0 {
				assert.GreaterOrEqual(t, results[k-1].Confidence, r.Confidence, "not sorted: %q", text)
			}
		}
	}
}

func TestClassify_HundredIffAllKeywords(t *testing.T) {
	c := NewDefault()
	for _, p := range DefaultPatterns() {
		t.Run(p.Key, func(t *testing.T) {
			full := c.Classify(strings.Join(p.Keywords, " | "))
			assert.Equal(t, 100.0, confidenceOf(full, p.Type))

			partial := c.Classify(strings.Join(p.Keywords[1:], " | "))
			assert.Less(t, confidenceOf(partial, p.Type), 100.0)
		})
	}
}

func TestForType(t *testing.T) {
	r := ForType("Período 11/2024 ANTEL", document.TypeUtilityBill)
	assert.Equal(t, document.CategoryExpense, r.Category)
	require.NotNil(t, r.Details.ServiceProvider)
	assert.Equal(t, "Antel", *r.Details.ServiceProvider)

	assert.True(t, ForType("x", document.TypeUnknown).IsUnknown())
	assert.True(t, Best(nil).IsUnknown())
}

func TestEngine_DeduplicatesKeywords(t *testing.T) {
	e := NewEngine(DefaultPatterns())
	// TOTAL A PAGAR, ESTADO DE CUENTA and SALDO ANTERIOR are declared twice
	assert.Len(t, e.keywords, 50-3)
	assert.Equal(t, 7, e.Total(3))
	assert.Equal(t, 0, e.Total(99))
}

func confidenceOf(results []Result, t document.Type) float64 {
	for _, r := range results {
		if r.Type == t {
			return r.Confidence
		}
	}
	return 0
}
