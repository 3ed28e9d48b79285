// Package document holds the vocabulary shared by the normalizer, classifier
// and extractor: canonical document types and their broad categories.
package document

// Type is the canonical tag assigned to a classified document.
type Type string

const (
	TypeSalaryAdvance  Type = "salary_advance"
	TypeLoan           Type = "loan"
	TypeCreditCard     Type = "credit_card"
	TypePurchase       Type = "purchase"
	TypeUtilityBill    Type = "utility_bill"
	TypeBankStatement  Type = "bank_statement"
	TypePaymentReceipt Type = "payment_receipt"
	TypeSalaryReceipt  Type = "salary_receipt"
	TypeUnknown        Type = "unknown"
)

// Category is the broad bucket a document type belongs to.
type Category string

const (
	CategoryIncome       Category = "income"
	CategoryCredit       Category = "credit"
	CategoryExpense      Category = "expense"
	CategoryAccount      Category = "account"
	CategoryTransaction  Category = "transaction"
	CategoryUnclassified Category = "unclassified"
)

// Types lists every known type except unknown, in pattern-library order.
func Types() []Type {
	return []Type{
		TypeSalaryAdvance,
		TypeLoan,
		TypeCreditCard,
		TypePurchase,
		TypeUtilityBill,
		TypeBankStatement,
		TypePaymentReceipt,
		TypeSalaryReceipt,
	}
}

// ParseType maps a raw tag to a Type; unrecognized input yields TypeUnknown.
func ParseType(raw string) Type {
	for _, t := range Types() {
		if string(t) == raw {
			return t
		}
	}
	return TypeUnknown
}
