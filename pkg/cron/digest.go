package cron

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	loansvc "github.com/FACorreiaa/finance-dashboard/internal/domain/loans/service"
	subsvc "github.com/FACorreiaa/finance-dashboard/internal/domain/subscriptions/service"
	"github.com/FACorreiaa/finance-dashboard/pkg/notify"
)

// UpcomingWindowDays is how far ahead the digest lists service charges.
const UpcomingWindowDays = 3

// Digest is the daily summary of what needs attention.
type Digest struct {
	AsOf     time.Time
	Overdue  []loansvc.OverdueLoan
	Expiring []subsvc.ContractStatus
	Upcoming []subsvc.UpcomingPayment
}

// BuildDigest collects overdue loans, contracts expiring soon and services
// charging within UpcomingWindowDays of asOf.
func BuildDigest(loans []ledger.Loan, services []ledger.Service, asOf time.Time) Digest {
	asOf = ledger.DateOf(asOf)
	d := Digest{
		AsOf:    asOf,
		Overdue: loansvc.GetOverdueLoans(loans, asOf),
	}
	for _, c := range subsvc.GetContractStatus(services, asOf) {
		if c.IsExpiringSoon {
			d.Expiring = append(d.Expiring, c)
		}
	}
	for _, u := range subsvc.GetUpcomingPayments(services, asOf) {
		if u.DaysUntil <= UpcomingWindowDays {
			d.Upcoming = append(d.Upcoming, u)
		}
	}
	return d
}

// Empty reports whether there is nothing to notify.
func (d Digest) Empty() bool {
	return len(d.Overdue) == 0 && len(d.Expiring) == 0 && len(d.Upcoming) == 0
}

// Lines renders one plain-text line per item.
func (d Digest) Lines() []string {
	var lines []string
	for _, o := range d.Overdue {
		lines = append(lines, fmt.Sprintf("Préstamo vencido: %s, %d días, recargo %s",
			o.Loan.Name, o.DaysOverdue, o.LateFee.Display()))
	}
	for _, c := range d.Expiring {
		lines = append(lines, fmt.Sprintf("Contrato por vencer: %s, renueva el %s (%d días)",
			c.Service.Name, ledger.FormatDate(c.Contract.RenewalDate), c.DaysUntilRenewal))
	}
	for _, u := range d.Upcoming {
		lines = append(lines, fmt.Sprintf("Cobro próximo: %s, %s el %s",
			u.Service.Name, u.Amount.Display(), ledger.FormatDate(u.DueDate)))
	}
	return lines
}

var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
  <h2>Resumen al {{.Date}}</h2>
  <ul>
  {{- range .Lines}}
    <li>{{.}}</li>
  {{- end}}
  </ul>
</body>
</html>
`))

// Message renders the digest as an email.
func (d Digest) Message() (notify.Message, error) {
	lines := d.Lines()
	date := ledger.FormatDate(d.AsOf)

	var html bytes.Buffer
	err := digestTemplate.Execute(&html, struct {
		Date  string
		Lines []string
	}{date, lines})
	if err != nil {
		return notify.Message{}, fmt.Errorf("failed to render digest: %w", err)
	}

	return notify.Message{
		Subject: fmt.Sprintf("Finanzas: %d vencidos, %d contratos, %d cobros próximos (%s)",
			len(d.Overdue), len(d.Expiring), len(d.Upcoming), date),
		HTML: html.String(),
		Text: strings.Join(lines, "\n"),
	}, nil
}
