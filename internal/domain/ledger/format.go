package ledger

import "strings"

// Label renders a payment method for display: "debit_6039" is "Débito 6039",
// "manual_6039" is "Manual 6039", "cash" is "Efectivo".
func (m PaymentMethod) Label() string {
	if m == MethodCash {
		return "Efectivo"
	}
	if m == MethodUpload {
		return "Comprobante"
	}

	kind, account, found := strings.Cut(string(m), "_")
	if !found {
		return string(m)
	}

	switch kind {
	case "debit":
		return "Débito " + account
	case "credit":
		return "Crédito " + account
	case "manual":
		return "Manual " + account
	case "transfer":
		return "Transferencia " + account
	default:
		return string(m)
	}
}

// Account extracts the account number from methods like "debit_2477".
func (m PaymentMethod) Account() string {
	_, account, found := strings.Cut(string(m), "_")
	if !found {
		return ""
	}
	return account
}
