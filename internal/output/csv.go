package output

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/law-makers/taxcert/pkg/models"
)

var parcelColumns = []string{
	"Parcel Number", "Owner", "Property Address", "Taxing Authority", "Delinquent", "Notes",
}

// WriteCSV writes one row per tax history entry, prefixed with the parcel
// columns. A record without history still gets one row so failures and
// not-found parcels stay visible in a batch export.
func WriteCSV(w io.Writer, recs ...models.ParcelTaxRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(append(append([]string{}, parcelColumns...), historyColumns...)); err != nil {
		return err
	}

	for _, rec := range recs {
		parcel := []string{
			rec.ParcelNumber,
			strings.Join(rec.OwnerName, "; "),
			rec.PropertyAddress,
			rec.TaxingAuthority,
			string(rec.Delinquent),
			rec.Notes,
		}
		if len(rec.TaxHistory) == 0 {
			row := append(append([]string{}, parcel...), make([]string, len(historyColumns))...)
			if err := writer.Write(row); err != nil {
				return err
			}
			continue
		}
		for _, e := range rec.TaxHistory {
			if err := writer.Write(append(append([]string{}, parcel...), historyRow(e)...)); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}
