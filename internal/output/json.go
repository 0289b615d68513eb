package output

import (
	"encoding/json"
	"io"

	"github.com/law-makers/taxcert/pkg/models"
)

// WriteJSON writes records as indented JSON: a single object for one
// record, an array otherwise.
func WriteJSON(w io.Writer, recs ...models.ParcelTaxRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(recs) == 1 {
		return enc.Encode(recs[0].Clone())
	}
	out := make([]models.ParcelTaxRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Clone())
	}
	return enc.Encode(out)
}
