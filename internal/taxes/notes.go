package taxes

import (
	"fmt"
	"strings"

	"github.com/law-makers/taxcert/pkg/models"
)

// Fixed notes for the outcomes that carry no billing data.
const (
	NoteNoTaxHistory = "Tax history and current taxes are not available on the website."
	NoteNotFound     = "Parcel not found on the website."
)

// DegradedNote explains a record produced after every attempt failed.
func DegradedNote(attempts int, reason string) string {
	return fmt.Sprintf("Unable to retrieve tax information from the website after %d attempts: %s", attempts, reason)
}

// Notes renders the summary note for a classified parcel from the history
// entries that will be reported with it. year is the most recent assessment
// year; when empty it is taken from the history.
func Notes(status Status, year string, history []models.TaxHistoryEntry, cal Calendar) string {
	cadence := func(annual bool) string {
		if annual {
			return "ANNUAL"
		}
		return cal.Cadence
	}
	dues := cal.NormalDueDates()

	switch status {
	case StatusPaid:
		annual := false
		if len(history) > 0 {
			if year == "" {
				year = history[0].Year
			}
			annual = history[0].PaymentType == models.PaymentAnnual
		}
		return fmt.Sprintf("ALL PRIORS ARE PAID, %s TAXES ARE PAID, NORMALLY TAXES ARE PAID %s, NORMAL DUE DATES ARE %s",
			year, cadence(annual), dues)

	case StatusPartial:
		paid, due := 0, 0
		for i, e := range history {
			if year == "" {
				year = e.Year
			}
			if e.Status == models.StatusPaid {
				paid = i + 1
			} else {
				due = i + 1
			}
		}
		return fmt.Sprintf("PRIOR YEAR(S) TAXES ARE PAID, %s %s INSTALLMENT PAID, %s INSTALLMENT DUE, NORMALLY TAXES ARE PAID %s, NORMAL DUE DATES ARE %s",
			year, ordinal(paid), ordinal(due), cal.Cadence, dues)

	case StatusUnpaid:
		years := distinctYears(history)
		if len(years) > 1 {
			return fmt.Sprintf("MULTIPLE YEARS (%s) TAXES ARE DUE", strings.Join(years, ", "))
		}
		if len(years) == 1 {
			year = years[0]
		}
		return fmt.Sprintf("%s TAXES ARE DUE, NORMALLY TAXES ARE PAID %s, NORMAL DUE DATES ARE %s",
			year, cal.Cadence, dues)

	default:
		return NoteNoTaxHistory
	}
}

func distinctYears(history []models.TaxHistoryEntry) []string {
	seen := make(map[string]bool)
	var years []string
	for _, e := range history {
		if !seen[e.Year] {
			seen[e.Year] = true
			years = append(years, e.Year)
		}
	}
	return years
}

func ordinal(n int) string {
	suffix := "TH"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "ST"
	case n%10 == 2:
		suffix = "ND"
	case n%10 == 3:
		suffix = "RD"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
