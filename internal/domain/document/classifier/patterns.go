package classifier

import "github.com/FACorreiaa/finance-dashboard/internal/domain/document"

// Pattern is one entry of the pattern library: the keywords that evidence a
// document type. Keywords are written as they appear on documents; they are
// normalized when the engine is built.
type Pattern struct {
	Key      string
	Keywords []string
	Type     document.Type
	Category document.Category
}

// DefaultPatterns returns the built-in library in evaluation order.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Key: "SALARY_ADVANCE",
			Keywords: []string{
				"UTILIZACIÓN ADELANTO DE SUELDO",
				"COBRO DE ADS",
				"ADELANTO DE SUELDO",
				"ADELANTO SALARIAL",
			},
			Type:     document.TypeSalaryAdvance,
			Category: document.CategoryIncome,
		},
		{
			Key: "LOAN",
			Keywords: []string{
				"PRÉSTAMO PERSONAL",
				"CRÉDITO",
				"CUOTA PRÉSTAMO",
				"PLAN DE PAGOS",
				"TEA",
				"TASA EFECTIVA ANUAL",
				"CAPITAL PRESTADO",
				"MONTO SOLICITADO",
			},
			Type:     document.TypeLoan,
			Category: document.CategoryCredit,
		},
		{
			Key: "CREDIT_CARD",
			Keywords: []string{
				"ESTADO DE CUENTA",
				"TARJETA DE CRÉDITO",
				"PAGO MÍNIMO",
				"FECHA DE VENCIMIENTO",
				"SALDO ANTERIOR",
				"CONSUMOS DEL MES",
			},
			Type:     document.TypeCreditCard,
			Category: document.CategoryCredit,
		},
		{
			Key: "PURCHASE",
			Keywords: []string{
				"FACTURA",
				"BOLETA",
				"RUT",
				"TOTAL A PAGAR",
				"SUBTOTAL",
				"IVA",
				"TICKET",
			},
			Type:     document.TypePurchase,
			Category: document.CategoryExpense,
		},
		{
			Key: "UTILITY_BILL",
			Keywords: []string{
				"CONSUMO",
				"SERVICIO",
				"FACTURACIÓN",
				"PERÍODO",
				"VENCIMIENTO",
				"CÓDIGO DE PAGO",
				"TOTAL A PAGAR",
			},
			Type:     document.TypeUtilityBill,
			Category: document.CategoryExpense,
		},
		{
			Key: "BANK_STATEMENT",
			Keywords: []string{
				"ESTADO DE CUENTA",
				"SALDO ANTERIOR",
				"SALDO ACTUAL",
				"MOVIMIENTOS",
				"DÉBITOS",
				"CRÉDITOS",
				"TRANSFERENCIAS",
			},
			Type:     document.TypeBankStatement,
			Category: document.CategoryAccount,
		},
		{
			Key: "PAYMENT_RECEIPT",
			Keywords: []string{
				"COMPROBANTE DE PAGO",
				"RECIBO",
				"CONSTANCIA",
				"VALOR RECIBIDO",
				"PAGADO",
			},
			Type:     document.TypePaymentReceipt,
			Category: document.CategoryTransaction,
		},
		{
			Key: "SALARY_RECEIPT",
			Keywords: []string{
				"RECIBO DE SUELDO",
				"NÓMINA",
				"SALARIO",
				"HABERES",
				"DEDUCCIONES",
				"LÍQUIDO A COBRAR",
			},
			Type:     document.TypeSalaryReceipt,
			Category: document.CategoryIncome,
		},
	}
}
