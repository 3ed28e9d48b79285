package ledger

import (
	"time"

	"github.com/FACorreiaa/finance-dashboard/pkg/money"
)

// Ledger is the full set of entities held by a store.
type Ledger struct {
	Loans    []Loan         `json:"loans"`
	Services []Service      `json:"services"`
	Accounts []Account      `json:"accounts"`
	Income   []IncomeRecord `json:"income"`
}

func uyu(v float64) *money.Money { return money.NewFromFloat(v, money.UYU) }
func usd(v float64) *money.Money { return money.NewFromFloat(v, money.USD) }
func rate(v float64) *float64    { return &v }
func day(y int, m time.Month, d int) *time.Time {
	t := Date(y, m, d)
	return &t
}

// Seed returns the dashboard's starting data. Each call returns fresh values.
func Seed() Ledger {
	return Ledger{
		Loans:    seedLoans(),
		Services: seedServices(),
		Accounts: seedAccounts(),
		Income:   seedIncome(),
	}
}

func seedLoans() []Loan {
	return []Loan{
		{
			ID:               1,
			Name:             "Refinanciamiento Antel",
			Owner:            "Ignacio",
			Account:          "6039",
			Capital:          uyu(4941.19),
			Installments:     9,
			Amount:           uyu(549.02),
			PaidInstallments: 1,
			InterestRate:     0,
			Status:           LoanActive,
			PaymentHistory: []Payment{
				{Date: Date(2024, time.November, 22), Amount: uyu(549.02), Status: PaymentPaid, Method: "debit_6039", InstallmentNumber: 1},
			},
			CurrentBalance:        uyu(4392.17),
			TotalAmountToPay:      uyu(4941.18),
			RemainingInstallments: 8,
			NextPaymentDate:       day(2024, time.December, 22),
		},
		{
			ID:                    2,
			Name:                  "BROU Viaje Argentina",
			Owner:                 "Ignacio",
			Account:               "2477",
			Capital:               uyu(12000),
			Installments:          10,
			Amount:                uyu(1411.58),
			PaidInstallments:      0,
			InterestRate:          29,
			Moratory:              rate(43.74),
			CancellationFee:       uyu(732),
			Status:                LoanActive,
			PaymentHistory:        []Payment{},
			CurrentBalance:        uyu(12000),
			TotalAmountToPay:      uyu(14115.80),
			RemainingInstallments: 10,
			NextPaymentDate:       day(2025, time.January, 1),
		},
		{
			ID:               3,
			Name:             "BROU Dentista",
			Owner:            "Ignacio",
			Account:          "2477",
			Capital:          uyu(20000),
			Installments:     12,
			Amount:           uyu(1916.39),
			PaidInstallments: 3,
			InterestRate:     23,
			Moratory:         rate(51.35),
			Status:           LoanActive,
			PaymentHistory: []Payment{
				{Date: Date(2024, time.October, 3), Amount: uyu(1916.39), Status: PaymentPaid, Method: "debit_2477", InstallmentNumber: 1, Automatic: true},
				{Date: Date(2024, time.November, 4), Amount: uyu(1916.39), Status: PaymentPaid, Method: "debit_2477", InstallmentNumber: 2, Automatic: true},
				{Date: Date(2024, time.December, 3), Amount: uyu(1916.39), Status: PaymentPaid, Method: "debit_2477", InstallmentNumber: 3, Automatic: true},
			},
			CurrentBalance:        uyu(14250.83),
			TotalAmountToPay:      uyu(22996.68),
			RemainingInstallments: 9,
			NextPaymentDate:       day(2025, time.January, 3),
		},
		{
			ID:                    4,
			Name:                  "BROU Buenos Aires",
			Owner:                 "Yenni",
			Account:               "2477",
			Capital:               uyu(10000),
			Installments:          6,
			Amount:                uyu(1801.64),
			PaidInstallments:      0,
			InterestRate:          19,
			Moratory:              rate(43.74),
			Status:                LoanActive,
			PaymentHistory:        []Payment{},
			CurrentBalance:        uyu(10000),
			TotalAmountToPay:      uyu(10809.84),
			RemainingInstallments: 6,
			NextPaymentDate:       day(2025, time.January, 3),
		},
		{
			ID:               5,
			Name:             "Adelanto Sueldo BROU",
			Owner:            "Yenni",
			Account:          "2477",
			Capital:          uyu(4800),
			Installments:     1,
			Amount:           uyu(4831.57),
			PaidInstallments: 1,
			Status:           LoanCompleted,
			PaymentHistory: []Payment{
				{Date: Date(2024, time.December, 2), Amount: uyu(4831.05), Status: PaymentPaid, Method: "debit_2477", InstallmentNumber: 1, Automatic: true, Details: "Cobro de ADS"},
			},
			CurrentBalance:        uyu(0),
			TotalAmountToPay:      uyu(4831.57),
			RemainingInstallments: 0,
		},
	}
}

func seedServices() []Service {
	return []Service{
		{
			ID:           "spotify",
			Name:         "Spotify Premium Familiar",
			Category:     "Digitales",
			Account:      "6039",
			Method:       "debit_6039",
			Price:        Price{Amount: usd(11.99), UYUEquivalent: uyu(541.72), ExchangeRate: 45.18},
			BillingCycle: BillingMonthly,
			BillingDay:   3,
			PaymentHistory: []Payment{
				{Date: Date(2024, time.November, 3), Amount: usd(11.99), UYUAmount: uyu(541.72), ExchangeRate: 45.18, Status: PaymentPaid, Method: "debit_6039", Automatic: true},
				{Date: Date(2024, time.December, 3), Amount: usd(11.99), UYUAmount: uyu(541.72), ExchangeRate: 45.18, Status: PaymentPaid, Method: "debit_6039", Automatic: true},
			},
		},
		{
			ID:           "chatgpt",
			Name:         "ChatGPT Plus",
			Category:     "Digitales",
			Account:      "2477",
			Method:       "debit_2477",
			Price:        Price{Amount: usd(20), UYUEquivalent: uyu(933), ExchangeRate: 46.65},
			BillingCycle: BillingMonthly,
			BillingDay:   10,
			PaymentHistory: []Payment{
				{Date: Date(2024, time.December, 10), Amount: usd(20), UYUAmount: uyu(933), ExchangeRate: 46.65, Status: PaymentPaid, Method: "debit_2477", Automatic: true},
			},
		},
		{
			ID:           "claude",
			Name:         "Claude Pro",
			Category:     "Digitales",
			Account:      "6039",
			Method:       "debit_6039",
			Price:        Price{Amount: usd(20), UYUEquivalent: uyu(900), ExchangeRate: 45},
			BillingCycle: BillingMonthly,
			BillingDay:   22,
			PaymentHistory: []Payment{
				{Date: Date(2024, time.November, 22), Amount: usd(20), UYUAmount: uyu(900), ExchangeRate: 45, Status: PaymentPaid, Method: "debit_6039", Automatic: true},
			},
		},
		{
			ID:           "google-one",
			Name:         "Google One",
			Category:     "Digitales",
			Account:      "6039",
			Method:       "debit_6039",
			Price:        Price{Amount: usd(20), UYUEquivalent: uyu(887.56), ExchangeRate: 44.38},
			BillingCycle: BillingAnnual,
			BillingDay:   1,
			Contract: &Contract{
				StartDate:         Date(2024, time.December, 1),
				RenewalDate:       Date(2025, time.December, 1),
				DurationMonths:    12,
				MonthlyEquivalent: uyu(73.96),
			},
			PaymentHistory: []Payment{
				{Date: Date(2024, time.December, 1), Amount: usd(20), UYUAmount: uyu(887.56), ExchangeRate: 44.38, Status: PaymentPaid, Method: "debit_6039", Automatic: true},
			},
		},
		{
			ID:           "plan-antel",
			Name:         "Plan Antel",
			Category:     "Digitales",
			Account:      "6039",
			Method:       "debit_6039",
			Price:        Price{Amount: uyu(520), UYUEquivalent: uyu(520)},
			BillingCycle: BillingMonthly,
			Contract: &Contract{
				StartDate:      Date(2024, time.October, 31),
				RenewalDate:    Date(2026, time.October, 31),
				DurationMonths: 24,
				IsFixed:        true,
			},
			PaymentHistory: []Payment{},
		},
	}
}

func seedAccounts() []Account {
	return []Account{
		{
			ID:          "6039",
			Name:        "Brou Débito",
			Type:        "debit",
			Income:      []string{"Sueldo"},
			Services:    []string{"spotify", "claude", "google-one", "plan-antel"},
			LinkedLoans: []int{1},
		},
		{
			ID:          "2477",
			Name:        "Visa Santander Débito",
			Type:        "debit",
			Expiry:      "09/27",
			Services:    []string{"chatgpt"},
			LinkedLoans: []int{2, 3, 4, 5},
		},
		{
			ID:     "3879",
			Name:   "Prex",
			Type:   "prepaid",
			Backup: true,
		},
	}
}

func seedIncome() []IncomeRecord {
	return []IncomeRecord{
		{Date: Date(2024, time.December, 1), Amount: uyu(45000), Description: "Sueldo noviembre", Account: "6039", Type: "salary"},
		{Date: Date(2024, time.December, 2), Amount: uyu(4800), Description: "Adelanto de sueldo BROU", Account: "2477", Type: "salary_advance"},
	}
}
