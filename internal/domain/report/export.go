package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	loansvc "github.com/FACorreiaa/finance-dashboard/internal/domain/loans/service"
	subsvc "github.com/FACorreiaa/finance-dashboard/internal/domain/subscriptions/service"
)

// PaymentRow is one line of the payments CSV export.
type PaymentRow struct {
	Month       string `csv:"month"`
	Date        string `csv:"date"`
	Kind        string `csv:"kind"`
	SourceID    string `csv:"source_id"`
	Name        string `csv:"name"`
	Account     string `csv:"account"`
	Method      string `csv:"method"`
	Installment string `csv:"installment"`
	Amount      string `csv:"amount"`
	Currency    string `csv:"currency"`
	UYUAmount   string `csv:"uyu_amount"`
	Status      string `csv:"status"`
}

// PaymentRows converts entries to CSV rows.
func PaymentRows(entries []PaymentEntry) []*PaymentRow {
	rows := make([]*PaymentRow, 0, len(entries))
	for _, e := range entries {
		p := e.Payment
		row := &PaymentRow{
			Month:     p.Date.Format("2006-01"),
			Date:      ledger.FormatDate(p.Date),
			Kind:      string(e.Source.Kind),
			SourceID:  e.Source.ID,
			Name:      e.Source.Name,
			Account:   e.Source.Account,
			Method:    p.Method.Label(),
			Amount:    p.Amount.String(),
			Currency:  p.Amount.Currency(),
			UYUAmount: p.UYU().String(),
			Status:    string(p.Status),
		}
		if p.InstallmentNumber > 0 {
			row.Installment = strconv.Itoa(p.InstallmentNumber)
		}
		rows = append(rows, row)
	}
	return rows
}

// WritePaymentsCSV writes every payment of the ledger, newest first.
func WritePaymentsCSV(w io.Writer, loans []ledger.Loan, services []ledger.Service) error {
	if err := gocsv.Marshal(PaymentRows(Entries(loans, services)), w); err != nil {
		return fmt.Errorf("failed to write payments csv: %w", err)
	}
	return nil
}

const (
	sheetSummary  = "Resumen"
	sheetLoans    = "Préstamos"
	sheetServices = "Servicios"
	sheetPayments = "Pagos"
)

// WriteSummaryXLSX writes a workbook with a summary sheet, loans, services
// and the monthly payment totals as of asOf.
func WriteSummaryXLSX(w io.Writer, l ledger.Ledger, asOf time.Time) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{sheetLoans, sheetServices, sheetPayments} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	overdue := loansvc.GetOverdueLoans(l.Loans, asOf)
	active, balance := 0, 0.0
	for _, loan := range l.Loans {
		if loan.IsActive() {
			active++
			balance += loan.CurrentBalance.ToFloat64()
		}
	}
	expiring := 0
	for _, c := range subsvc.GetContractStatus(l.Services, asOf) {
		if c.IsExpiringSoon {
			expiring++
		}
	}

	sheets := map[string][][]any{
		sheetSummary: {
			{"Concepto", "Valor"},
			{"Fecha de referencia", ledger.FormatDate(asOf)},
			{"Préstamos activos", active},
			{"Saldo de préstamos (UYU)", balance},
			{"Préstamos vencidos", len(overdue)},
			{"Servicios mensuales (UYU)", subsvc.GetMonthlyTotal(l.Services).ToFloat64()},
			{"Contratos por vencer", expiring},
		},
		sheetLoans:    loanRows(l.Loans),
		sheetServices: serviceRows(l.Services),
		sheetPayments: monthRows(GroupByMonth(l.Loans, l.Services)),
	}

	for _, name := range []string{sheetSummary, sheetLoans, sheetServices, sheetPayments} {
		rows := sheets[name]
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return fmt.Errorf("failed to write %s row %d: %w", name, i+1, err)
			}
		}
		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(name, "A1", last, header); err != nil {
			return fmt.Errorf("failed to style %s header: %w", name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func loanRows(loans []ledger.Loan) [][]any {
	rows := [][]any{{"ID", "Nombre", "Cuenta", "Cuota", "Pagadas", "Restantes", "Saldo", "Próximo vencimiento", "Estado"}}
	for _, l := range loans {
		next := ""
		if l.NextPaymentDate != nil {
			next = ledger.FormatDate(*l.NextPaymentDate)
		}
		rows = append(rows, []any{
			l.ID, l.Name, l.Account, l.Amount.ToFloat64(), l.PaidInstallments,
			l.RemainingInstallments, l.CurrentBalance.ToFloat64(), next, string(l.Status),
		})
	}
	return rows
}

func serviceRows(services []ledger.Service) [][]any {
	rows := [][]any{{"ID", "Nombre", "Cuenta", "Moneda", "Monto", "UYU", "Ciclo", "Día de cobro"}}
	for _, s := range services {
		day := ""
		if s.HasBillingDay() {
			day = strconv.Itoa(s.BillingDay)
		}
		rows = append(rows, []any{
			s.ID, s.Name, s.Account, s.Price.Currency(), s.Price.Amount.ToFloat64(),
			s.Price.UYU().ToFloat64(), string(s.BillingCycle), day,
		})
	}
	return rows
}

func monthRows(groups []MonthGroup) [][]any {
	rows := [][]any{{"Mes", "Pagos", "Total (UYU)"}}
	for _, g := range groups {
		rows = append(rows, []any{g.Month, len(g.Payments), g.Total.ToFloat64()})
	}
	return rows
}
