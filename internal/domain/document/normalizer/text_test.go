package normalizer

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"accents and case", "Utilización adelanto de sueldo", "UTILIZACION ADELANTO DE SUELDO"},
		{"enye", "Año", "ANO"},
		{"already normalized", "PRESTAMO PERSONAL", "PRESTAMO PERSONAL"},
		{"degree sign kept", "N° 123", "N° 123"},
		{"empty", "", ""},
		{"decomposed input", "Crédito", "CREDITO"},
		{"diaeresis", "pingüino", "PINGUINO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	faker := gofakeit.New(42)

	inputs := []string{
		"ΐ", "ǅ", "ß", "ﬁ", "Å", "İstanbul", "ÀÉÎÕÜ àéîõü", "CONSUMOS DEL MES",
	}
	for i := 0; i < 200; i++ {
		inputs = append(inputs,
			faker.Sentence(8),
			faker.LetterN(uint(faker.Number(1, 40))),
			faker.Emoji()+faker.Name(),
			string(rune(faker.Number(0x00C0, 0x024F)))+string(rune(faker.Number(0x0370, 0x03FF))),
		)
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("Pago de $541.72 Spotify Premium Familiar", "spotify premium familiar"))
	assert.True(t, Contains("PLAN DE PAGOS - préstamo", "PRÉSTAMO"))
	assert.False(t, Contains("recibo", "factura"))
	assert.True(t, Equal("Débito", "DEBITO"))
}
