package taxes

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Period is one billing period (half-year or installment) of a bill.
type Period struct {
	Billed Money
	Paid   Money
	Due    Money
	// PaidObserved is set when the site published the paid amount itself
	// rather than leaving it to be derived from billed and due.
	PaidObserved bool
}

// Bill is one assessment year as published by the site.
type Bill struct {
	Year    string // assessment year
	Periods []Period
}

// TotalBilled sums the billed amounts of every period.
func (b Bill) TotalBilled() Money {
	var total Money
	for _, p := range b.Periods {
		total += p.Billed
	}
	return total
}

// TotalPaid sums the paid amounts of every period.
func (b Bill) TotalPaid() Money {
	var total Money
	for _, p := range b.Periods {
		total += p.Paid
	}
	return total
}

// TotalDue sums the due amounts of every period.
func (b Bill) TotalDue() Money {
	var total Money
	for _, p := range b.Periods {
		total += p.Due
	}
	return total
}

// HasBalance reports whether any period has a positive amount due.
func (b Bill) HasBalance() bool {
	for _, p := range b.Periods {
		if p.Due.Positive() {
			return true
		}
	}
	return false
}

func (b Bill) yearNum() int {
	n, err := strconv.Atoi(strings.TrimSpace(b.Year))
	if err != nil {
		// "2024-2025" style labels sort by their first year
		if i := strings.IndexAny(b.Year, "-/ "); i > 0 {
			n, _ = strconv.Atoi(b.Year[:i])
		}
	}
	return n
}

// Payment is one payment transaction from a site's payment table.
type Payment struct {
	Year    string // assessment year, when the site publishes it
	Date    time.Time
	RawDate string
	Amount  Money
	Receipt string
}

// PaidDate renders the payment date for history entries.
func (p Payment) PaidDate() string {
	if !p.Date.IsZero() {
		return p.Date.Format(DateLayout)
	}
	return p.RawDate
}

// ParseDate parses the US-style dates sites publish. The zero time is
// returned for anything unrecognised.
func ParseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{DateLayout, "1/2/2006", "2006-01-02", "01/02/2006 3:04:05 PM", "1/2/2006 3:04:05 PM", "Jan 2, 2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Ledger is everything an adapter extracted about a parcel's billing.
type Ledger struct {
	Bills       []Bill
	Payments    []Payment
	GoodThrough string
}

// Sorted returns the bills newest assessment year first.
func (l Ledger) Sorted() []Bill {
	bills := append([]Bill(nil), l.Bills...)
	sort.SliceStable(bills, func(i, j int) bool {
		return bills[i].yearNum() > bills[j].yearNum()
	})
	return bills
}

// Latest returns the most recent assessment year's bill.
func (l Ledger) Latest() (Bill, bool) {
	bills := l.Sorted()
	if len(bills) == 0 {
		return Bill{}, false
	}
	return bills[0], true
}

// PaymentsFor returns the payments that belong to a bill. Payments carrying
// an assessment year are matched on it; the rest are matched on the calendar
// year of the bill's first due date.
func (l Ledger) PaymentsFor(b Bill, cal Calendar) []Payment {
	var payable int
	if t, ok := cal.DueTime(b.Year, 0); ok {
		payable = t.Year()
	}
	var out []Payment
	for _, p := range l.Payments {
		switch {
		case p.Year != "":
			if strings.TrimSpace(p.Year) == strings.TrimSpace(b.Year) {
				out = append(out, p)
			}
		case !p.Date.IsZero() && p.Date.Year() == payable:
			out = append(out, p)
		}
	}
	return out
}
