package taxes

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/taxcert/pkg/models"
)

const (
	jurisdictionCounty = "County"
	noDate             = "-"
)

// Matcher assigns payment transactions to the periods of a bill. The result
// is aligned with bill.Periods; a nil element means no payment matched.
type Matcher func(cal Calendar, bill Bill, payments []Payment) []*Payment

// MatchByAmountAndDate pairs each period with the payment nearest its amount,
// preferring payments dated inside the period's window (on or before the
// first due date for the first period, between the previous and own due
// date for later ones).
func MatchByAmountAndDate(cal Calendar, bill Bill, payments []Payment) []*Payment {
	out := make([]*Payment, len(bill.Periods))
	used := make([]bool, len(payments))
	for i, period := range bill.Periods {
		target := period.Paid
		if !target.Positive() {
			target = period.Billed
		}
		best := -1
		bestOut := true
		var bestDiff Money
		for j, p := range payments {
			if used[j] || !p.Amount.Near(target) {
				continue
			}
			outside := !inWindow(cal, bill.Year, i, p)
			diff := (p.Amount - target).Abs()
			if best < 0 || (bestOut && !outside) || (bestOut == outside && diff < bestDiff) {
				best, bestOut, bestDiff = j, outside, diff
			}
		}
		if best >= 0 {
			used[best] = true
			out[i] = &payments[best]
		}
	}
	return out
}

func inWindow(cal Calendar, year string, i int, p Payment) bool {
	if p.Date.IsZero() {
		return false
	}
	due, ok := cal.DueTime(year, i)
	if !ok || p.Date.After(due) {
		return false
	}
	if i == 0 {
		return true
	}
	prev, ok := cal.DueTime(year, i-1)
	return ok && p.Date.After(prev)
}

// MatchChronological pairs the earliest payment with the first period, the
// next with the second, and so on.
func MatchChronological(_ Calendar, bill Bill, payments []Payment) []*Payment {
	sorted := make([]*Payment, len(payments))
	for i := range payments {
		sorted[i] = &payments[i]
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	out := make([]*Payment, len(bill.Periods))
	for i := range out {
		if i < len(sorted) {
			out[i] = sorted[i]
		}
	}
	return out
}

// Reconcile makes every period's paid amount consistent with billed minus
// due. Unobserved paid amounts are derived; observed ones off by more than
// Tolerance are replaced.
func Reconcile(b Bill) Bill {
	out := b
	out.Periods = make([]Period, len(b.Periods))
	for i, p := range b.Periods {
		expected := p.Billed - p.Due
		if expected < 0 {
			expected = 0
		}
		switch {
		case !p.PaidObserved:
			p.Paid = expected
		case !p.Paid.Near(expected):
			log.Warn().
				Str("year", b.Year).
				Int("period", i+1).
				Str("observed_paid", p.Paid.String()).
				Str("derived_paid", expected.String()).
				Msg("Paid amount disagrees with billed minus due, using derived amount")
			p.Paid = expected
		}
		out.Periods[i] = p
	}
	return out
}

// Normalize turns a classified ledger into canonical history entries.
// The result is never nil.
func Normalize(status Status, l Ledger, cal Calendar, match Matcher) []models.TaxHistoryEntry {
	if match == nil {
		match = MatchByAmountAndDate
	}
	entries := []models.TaxHistoryEntry{}

	bills := l.Sorted()
	if len(bills) == 0 {
		return entries
	}
	for i := range bills {
		bills[i] = Reconcile(bills[i])
	}

	switch status {
	case StatusPaid:
		return append(entries, paidEntries(bills[0], l, cal, match)...)
	case StatusPartial:
		return append(entries, partialEntries(bills[0], l, cal, match)...)
	case StatusUnpaid:
		for _, b := range bills {
			entries = append(entries, unpaidEntries(b, l, cal, match)...)
		}
		return entries
	default:
		return entries
	}
}

func paidEntries(b Bill, l Ledger, cal Calendar, match Matcher) []models.TaxHistoryEntry {
	payments := l.PaymentsFor(b, cal)
	total := b.TotalBilled()

	annual := func(paid *Payment) []models.TaxHistoryEntry {
		e := entry(b.Year, cal, 0)
		e.PaymentType = models.PaymentAnnual
		e.Status = models.StatusPaid
		e.BaseAmount = total.String()
		e.AmountPaid = b.TotalPaid().String()
		e.AmountDue = b.TotalDue().String()
		if paid != nil {
			e.PaidDate = paid.PaidDate()
		}
		return []models.TaxHistoryEntry{e}
	}

	// Exempt parcels are billed nothing; the year is still reported.
	if !total.Positive() {
		return annual(nil)
	}

	var single *Payment
	matches := 0
	for i := range payments {
		if payments[i].Amount.Near(total) {
			matches++
			single = &payments[i]
		}
	}
	if matches == 1 {
		return annual(single)
	}

	matched := match(cal, b, payments)
	n := len(b.Periods)
	var out []models.TaxHistoryEntry
	for i, p := range b.Periods {
		if !p.Billed.Positive() {
			continue
		}
		e := periodEntry(b.Year, cal, i, p, l.GoodThrough)
		e.PaymentType = cal.PeriodType(i, n)
		e.Status = models.StatusPaid
		if matched[i] != nil {
			e.PaidDate = matched[i].PaidDate()
		}
		out = append(out, e)
	}
	return out
}

func partialEntries(b Bill, l Ledger, cal Calendar, match Matcher) []models.TaxHistoryEntry {
	matched := match(cal, b, l.PaymentsFor(b, cal))
	n := len(b.Periods)
	var out []models.TaxHistoryEntry
	for i, p := range b.Periods {
		e := periodEntry(b.Year, cal, i, p, l.GoodThrough)
		e.PaymentType = cal.Label(i, n)
		if p.Due.Positive() {
			e.Status = models.StatusUnpaid
			out = append(out, e)
			break
		}
		e.Status = models.StatusPaid
		if matched[i] != nil {
			e.PaidDate = matched[i].PaidDate()
		}
		out = append(out, e)
	}
	return out
}

func unpaidEntries(b Bill, l Ledger, cal Calendar, match Matcher) []models.TaxHistoryEntry {
	matched := match(cal, b, l.PaymentsFor(b, cal))
	n := len(b.Periods)
	var out []models.TaxHistoryEntry
	for i, p := range b.Periods {
		if !p.Due.Positive() {
			continue
		}
		e := periodEntry(b.Year, cal, i, p, l.GoodThrough)
		e.PaymentType = cal.Label(i, n)
		e.Status = models.StatusUnpaid
		if p.Paid.Positive() && matched[i] != nil {
			e.PaidDate = matched[i].PaidDate()
		}
		out = append(out, e)
	}
	return out
}

func periodEntry(year string, cal Calendar, i int, p Period, goodThrough string) models.TaxHistoryEntry {
	e := entry(year, cal, i)
	e.BaseAmount = p.Billed.String()
	e.AmountPaid = p.Paid.String()
	e.AmountDue = p.Due.String()
	if p.Due.Positive() {
		e.GoodThroughDate = goodThrough
	}
	return e
}

func entry(year string, cal Calendar, i int) models.TaxHistoryEntry {
	return models.TaxHistoryEntry{
		Jurisdiction: jurisdictionCounty,
		Year:         year,
		MailingDate:  models.NotAvailable,
		DueDate:      orDash(cal.DueDate(year, i)),
		DelqDate:     orDash(cal.DelqDate(year, i)),
		PaidDate:     noDate,
	}
}

func orDash(s string) string {
	if s == "" {
		return noDate
	}
	return s
}
