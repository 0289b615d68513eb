package taxes

import (
	"strings"
	"time"

	"github.com/law-makers/taxcert/pkg/models"
)

// ProcessedDateLayout is the layout of ParcelTaxRecord.ProcessedDate.
const ProcessedDateLayout = "2006-01-02"

const invalidParcel = "Invalid Parcel ID"

// Valuation is the owner, situs and value block of a parcel page.
type Valuation struct {
	Owners       []string
	Address      string
	Land         string
	Improvements string
	Assessed     string
	Exemption    string
	Taxable      string
}

// Assembly is everything the assembler merges into one record.
type Assembly struct {
	Account         string
	TaxingAuthority string
	Calendar        Calendar
	Status          Status
	Year            string // most recent assessment year
	Valuation       Valuation
	History         []models.TaxHistoryEntry
	Now             time.Time
}

// Assemble builds the final record for a located parcel. It is the only
// place Delinquent and Notes are set for a classified parcel.
func Assemble(a Assembly) models.ParcelTaxRecord {
	rec := base(a.Account, a.TaxingAuthority, a.Now)
	v := a.Valuation
	rec.OwnerName = cleanOwners(v.Owners)
	rec.PropertyAddress = orNA(v.Address)
	rec.LandValue = currencyOrNA(v.Land)
	rec.Improvements = currencyOrNA(v.Improvements)
	rec.TotalAssessedValue = currencyOrNA(v.Assessed)
	rec.Exemption = currencyOrNA(v.Exemption)
	rec.TotalTaxableValue = currencyOrNA(v.Taxable)

	if a.History != nil {
		rec.TaxHistory = append(rec.TaxHistory, a.History...)
	}

	switch a.Status {
	case StatusPaid:
		rec.Delinquent = models.DelinquentNone
	case StatusPartial, StatusUnpaid:
		rec.Delinquent = models.DelinquentYes
	default:
		rec.Delinquent = models.DelinquentNA
		rec.TaxHistory = []models.TaxHistoryEntry{}
	}
	rec.Notes = Notes(a.Status, a.Year, rec.TaxHistory, a.Calendar)
	return rec.Clone()
}

// NotFound builds the record for an account the site has no parcel for.
func NotFound(account, authority string, now time.Time) models.ParcelTaxRecord {
	rec := base(account, authority, now)
	rec.BorrowerName = invalidParcel
	rec.OwnerName = []string{invalidParcel}
	rec.PropertyAddress = invalidParcel
	rec.Notes = NoteNotFound
	rec.Delinquent = models.DelinquentNA
	return rec
}

// Degraded builds the placeholder record returned once every attempt failed.
func Degraded(account, authority string, attempts int, reason string, now time.Time) models.ParcelTaxRecord {
	rec := base(account, authority, now)
	rec.Notes = DegradedNote(attempts, reason)
	rec.Delinquent = models.DelinquentUnknown
	return rec
}

func base(account, authority string, now time.Time) models.ParcelTaxRecord {
	if now.IsZero() {
		now = time.Now()
	}
	return models.ParcelTaxRecord{
		ProcessedDate:      now.Format(ProcessedDateLayout),
		OwnerName:          []string{},
		ParcelNumber:       account,
		LandValue:          models.NotAvailable,
		Improvements:       models.NotAvailable,
		TotalAssessedValue: models.NotAvailable,
		Exemption:          models.NotAvailable,
		TotalTaxableValue:  models.NotAvailable,
		TaxingAuthority:    authority,
		TaxHistory:         []models.TaxHistoryEntry{},
	}
}

func cleanOwners(owners []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, o := range owners {
		o = strings.Join(strings.Fields(o), " ")
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	return out
}

func orNA(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return models.NotAvailable
	}
	return s
}

func currencyOrNA(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, models.NotAvailable) {
		return models.NotAvailable
	}
	return NormalizeCurrency(s)
}
