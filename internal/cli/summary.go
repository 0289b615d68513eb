package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/law-makers/taxcert/internal/ui"
	"github.com/law-makers/taxcert/pkg/models"
)

const labelWidth = 15

// printSummary writes a human-readable view of rec.
func printSummary(w io.Writer, rec models.ParcelTaxRecord) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", ui.Label("Parcel:", labelWidth), ui.Bold(rec.ParcelNumber))
	if rec.OrderNumber != "" {
		fmt.Fprintf(w, "%s %s\n", ui.Label("Order:", labelWidth), rec.OrderNumber)
	}
	fmt.Fprintf(w, "%s %s\n", ui.Label("Owner:", labelWidth), strings.Join(rec.OwnerName, "; "))
	fmt.Fprintf(w, "%s %s\n", ui.Label("Address:", labelWidth), rec.PropertyAddress)
	fmt.Fprintf(w, "%s %s\n", ui.Label("Authority:", labelWidth), rec.TaxingAuthority)
	fmt.Fprintf(w, "%s %s / %s / %s\n", ui.Label("Land/Impr/Tot:", labelWidth),
		rec.LandValue, rec.Improvements, rec.TotalAssessedValue)
	fmt.Fprintf(w, "%s %s\n", ui.Label("Taxable:", labelWidth), rec.TotalTaxableValue)
	fmt.Fprintf(w, "%s %s\n", ui.Label("Delinquent:", labelWidth), delinquency(rec.Delinquent))

	if len(rec.TaxHistory) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.Bold("Tax History"))
		for _, e := range rec.TaxHistory {
			status := ui.Success(e.Status)
			if e.Status != models.StatusPaid {
				status = ui.Error(e.Status)
			}
			fmt.Fprintf(w, "  %s %-18s %-8s base %-12s paid %-12s due %-12s %s\n",
				e.Year, e.PaymentType, status, e.BaseAmount, e.AmountPaid, e.AmountDue,
				ui.Dim("due "+e.DueDate+" paid "+e.PaidDate))
		}
	}

	fmt.Fprintf(w, "\n%s\n%s\n\n", ui.Bold("Notes"), rec.Notes)
}

func delinquency(d models.Delinquency) string {
	switch d {
	case models.DelinquentYes:
		return ui.Error(string(d))
	case models.DelinquentNone:
		return ui.Success(string(d))
	default:
		return ui.Warning(string(d))
	}
}
