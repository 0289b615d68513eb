package taxes

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/law-makers/taxcert/pkg/models"
)

// DateLayout is the jurisdiction-local date format used on history entries.
const DateLayout = "01/02/2006"

// DueDay is one period's due day. YearOffset is added to the assessment year
// to get the calendar year the period falls due in.
type DueDay struct {
	Month      time.Month
	Day        int
	YearOffset int
}

// Labeling selects how periods are named on history entries.
type Labeling int

const (
	// LabelHalves names two-period years First/Second Installment.
	LabelHalves Labeling = iota
	// LabelNumbered names periods Installment #N.
	LabelNumbered
)

// Calendar is a jurisdiction's billing calendar.
type Calendar struct {
	Periods  []DueDay
	Cadence  string // e.g. "SEMI-ANNUAL", used in notes
	Labeling Labeling
}

// SemiAnnual builds the usual two-period calendar with both halves due in the
// same calendar year (assessment year + offset).
func SemiAnnual(offset int, first, second DueDay) Calendar {
	first.YearOffset += offset
	second.YearOffset += offset
	return Calendar{
		Periods: []DueDay{first, second},
		Cadence: "SEMI-ANNUAL",
	}
}

// NumPeriods returns the number of billing periods per year.
func (c Calendar) NumPeriods() int { return len(c.Periods) }

func (c Calendar) due(year string, i int) (time.Time, bool) {
	if i < 0 || i >= len(c.Periods) {
		return time.Time{}, false
	}
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return time.Time{}, false
	}
	p := c.Periods[i]
	return time.Date(y+p.YearOffset, p.Month, p.Day, 0, 0, 0, 0, time.UTC), true
}

// DueTime returns the due date of period i of an assessment year.
func (c Calendar) DueTime(year string, i int) (time.Time, bool) {
	return c.due(year, i)
}

// DueDate renders the due date of period i, or "" when unknown.
func (c Calendar) DueDate(year string, i int) string {
	t, ok := c.due(year, i)
	if !ok {
		return ""
	}
	return t.Format(DateLayout)
}

// DelqDate is always the day after the due date.
func (c Calendar) DelqDate(year string, i int) string {
	t, ok := c.due(year, i)
	if !ok {
		return ""
	}
	return t.AddDate(0, 0, 1).Format(DateLayout)
}

// NormalDueDates renders the "MM/DD & MM/DD" summary used in notes.
func (c Calendar) NormalDueDates() string {
	parts := make([]string, 0, len(c.Periods))
	for _, p := range c.Periods {
		parts = append(parts, fmt.Sprintf("%02d/%02d", int(p.Month), p.Day))
	}
	return strings.Join(parts, " & ")
}

// Label names period i of a year with n periods.
func (c Calendar) Label(i, n int) string {
	switch {
	case n == 1:
		return models.PaymentAnnual
	case c.Labeling == LabelHalves && n == 2 && i == 0:
		return models.PaymentFirstInstallment
	case c.Labeling == LabelHalves && n == 2:
		return models.PaymentSecondInstallment
	}
	return fmt.Sprintf("Installment #%d", i+1)
}

// PeriodType is the payment type used for per-period entries of a paid year.
func (c Calendar) PeriodType(i, n int) string {
	switch {
	case n == 1:
		return models.PaymentAnnual
	case c.Labeling == LabelHalves && n == 2:
		return models.PaymentSemiAnnual
	}
	return fmt.Sprintf("Installment #%d", i+1)
}
