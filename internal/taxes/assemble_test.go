package taxes

import (
	"testing"
	"time"

	"github.com/law-makers/taxcert/pkg/models"
)

var fixedNow = time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC)

func TestNotFound(t *testing.T) {
	rec := NotFound("12-345", "Mercer County Auditor", fixedNow)

	if rec.Delinquent != models.DelinquentNA {
		t.Errorf("Expected delinquent N/A, got %s", rec.Delinquent)
	}
	if rec.TaxHistory == nil || len(rec.TaxHistory) != 0 {
		t.Errorf("Expected empty non-nil history, got %v", rec.TaxHistory)
	}
	if rec.Notes != "Parcel not found on the website." {
		t.Errorf("Unexpected notes: %s", rec.Notes)
	}
	if len(rec.OwnerName) != 1 || rec.OwnerName[0] != "Invalid Parcel ID" {
		t.Errorf("Expected Invalid Parcel ID owner, got %v", rec.OwnerName)
	}
	if rec.ParcelNumber != "12-345" {
		t.Errorf("Expected parcel number echoed, got %s", rec.ParcelNumber)
	}
	if rec.ProcessedDate != "2025-03-04" {
		t.Errorf("Expected processed date 2025-03-04, got %s", rec.ProcessedDate)
	}
}

func TestAssemble_Paid(t *testing.T) {
	cal := mercerCalendar()
	l := Ledger{
		Bills:    []Bill{halves("2024", 500, 0, 500, 0)},
		Payments: []Payment{{Date: day(2025, time.February, 1), Amount: Dollars(1000)}},
	}
	status := Classify(l)

	rec := Assemble(Assembly{
		Account:         "10-001",
		TaxingAuthority: "Mercer County Auditor",
		Calendar:        cal,
		Status:          status,
		Valuation: Valuation{
			Owners:   []string{"  SMITH  JOHN ", "SMITH JOHN", "", "DOE JANE"},
			Address:  "123 MAIN ST\n CELINA",
			Land:     "12340",
			Assessed: "$45,000",
		},
		History: Normalize(status, l, cal, nil),
		Now:     fixedNow,
	})

	if rec.Delinquent != models.DelinquentNone {
		t.Errorf("Expected NONE, got %s", rec.Delinquent)
	}
	want := "ALL PRIORS ARE PAID, 2024 TAXES ARE PAID, NORMALLY TAXES ARE PAID ANNUAL, NORMAL DUE DATES ARE 02/21 & 07/21"
	if rec.Notes != want {
		t.Errorf("Expected notes %q, got %q", want, rec.Notes)
	}
	if len(rec.OwnerName) != 2 || rec.OwnerName[0] != "SMITH JOHN" || rec.OwnerName[1] != "DOE JANE" {
		t.Errorf("Unexpected owners: %v", rec.OwnerName)
	}
	if rec.PropertyAddress != "123 MAIN ST CELINA" {
		t.Errorf("Unexpected address: %q", rec.PropertyAddress)
	}
	if rec.LandValue != "$12,340.00" || rec.TotalAssessedValue != "$45,000.00" {
		t.Errorf("Unexpected values: land %s assessed %s", rec.LandValue, rec.TotalAssessedValue)
	}
	if rec.Improvements != "N/A" || rec.Exemption != "N/A" {
		t.Errorf("Expected missing values as N/A, got %s and %s", rec.Improvements, rec.Exemption)
	}
}

func TestAssemble_PartialNotes(t *testing.T) {
	cal := mercerCalendar()
	l := Ledger{Bills: []Bill{halves("2024", 500, 0, 500, 500)}}
	status := Classify(l)
	rec := Assemble(Assembly{Calendar: cal, Status: status, History: Normalize(status, l, cal, nil), Now: fixedNow})

	if rec.Delinquent != models.DelinquentYes {
		t.Errorf("Expected YES, got %s", rec.Delinquent)
	}
	want := "PRIOR YEAR(S) TAXES ARE PAID, 2024 1ST INSTALLMENT PAID, 2ND INSTALLMENT DUE, NORMALLY TAXES ARE PAID SEMI-ANNUAL, NORMAL DUE DATES ARE 02/21 & 07/21"
	if rec.Notes != want {
		t.Errorf("Expected notes %q, got %q", want, rec.Notes)
	}
}

func TestAssemble_UnpaidNotes(t *testing.T) {
	cal := mercerCalendar()

	single := Ledger{Bills: []Bill{halves("2024", 500, 500, 500, 500)}}
	rec := Assemble(Assembly{Calendar: cal, Status: StatusUnpaid, History: Normalize(StatusUnpaid, single, cal, nil)})
	want := "2024 TAXES ARE DUE, NORMALLY TAXES ARE PAID SEMI-ANNUAL, NORMAL DUE DATES ARE 02/21 & 07/21"
	if rec.Notes != want {
		t.Errorf("Expected notes %q, got %q", want, rec.Notes)
	}

	multi := Ledger{Bills: []Bill{
		halves("2022", 1, 1, 1, 1),
		halves("2023", 1, 1, 1, 1),
		halves("2024", 1, 1, 1, 1),
	}}
	rec = Assemble(Assembly{Calendar: cal, Status: StatusUnpaid, History: Normalize(StatusUnpaid, multi, cal, nil)})
	if rec.Notes != "MULTIPLE YEARS (2024, 2023, 2022) TAXES ARE DUE" {
		t.Errorf("Unexpected notes: %q", rec.Notes)
	}
	if rec.Delinquent != models.DelinquentYes {
		t.Errorf("Expected YES, got %s", rec.Delinquent)
	}
	if len(rec.TaxHistory) != 6 {
		t.Errorf("Expected 6 unpaid entries, got %d", len(rec.TaxHistory))
	}
}

func TestAssemble_ExemptParcelKeepsYear(t *testing.T) {
	cal := mercerCalendar()
	l := Ledger{Bills: []Bill{{Year: "2024", Periods: []Period{{}, {}}}}}
	status := Classify(l)
	if status != StatusPaid {
		t.Fatalf("Expected PAID, got %s", status)
	}

	latest, _ := l.Latest()
	rec := Assemble(Assembly{
		Calendar: cal,
		Status:   status,
		Year:     latest.Year,
		History:  Normalize(status, l, cal, nil),
		Now:      fixedNow,
	})

	if rec.Delinquent != models.DelinquentNone {
		t.Errorf("Expected NONE, got %s", rec.Delinquent)
	}
	if len(rec.TaxHistory) != 1 {
		t.Fatalf("Expected one entry for the exempt year, got %+v", rec.TaxHistory)
	}
	e := rec.TaxHistory[0]
	if e.Year != "2024" || e.PaymentType != models.PaymentAnnual || e.BaseAmount != "$0.00" || e.PaidDate != "-" {
		t.Errorf("Unexpected exempt entry: %+v", e)
	}
	want := "ALL PRIORS ARE PAID, 2024 TAXES ARE PAID, NORMALLY TAXES ARE PAID ANNUAL, NORMAL DUE DATES ARE 02/21 & 07/21"
	if rec.Notes != want {
		t.Errorf("Expected notes %q, got %q", want, rec.Notes)
	}
}

func TestNotes_YearFromAssembly(t *testing.T) {
	got := Notes(StatusPaid, "2024", nil, mercerCalendar())
	want := "ALL PRIORS ARE PAID, 2024 TAXES ARE PAID, NORMALLY TAXES ARE PAID SEMI-ANNUAL, NORMAL DUE DATES ARE 02/21 & 07/21"
	if got != want {
		t.Errorf("Expected notes %q, got %q", want, got)
	}
}

func TestAssemble_NoTaxHistory(t *testing.T) {
	rec := Assemble(Assembly{
		Account: "1",
		Status:  StatusNoTaxHistory,
		History: []models.TaxHistoryEntry{{Year: "2024"}},
	})
	if rec.Delinquent != models.DelinquentNA {
		t.Errorf("Expected N/A, got %s", rec.Delinquent)
	}
	if rec.Notes != NoteNoTaxHistory {
		t.Errorf("Unexpected notes: %q", rec.Notes)
	}
	if rec.TaxHistory == nil || len(rec.TaxHistory) != 0 {
		t.Errorf("Expected empty history, got %v", rec.TaxHistory)
	}
}

func TestAssemble_DoesNotAliasHistory(t *testing.T) {
	history := []models.TaxHistoryEntry{{Year: "2024", Status: models.StatusUnpaid}}
	rec := Assemble(Assembly{Status: StatusUnpaid, History: history})
	history[0].Year = "1999"
	if rec.TaxHistory[0].Year != "2024" {
		t.Error("Expected record history to be independent of the input slice")
	}
}

func TestDegraded(t *testing.T) {
	rec := Degraded("1", "Auth", 3, "navigation timed out", fixedNow)
	if rec.Delinquent != models.DelinquentUnknown {
		t.Errorf("Expected UNKNOWN, got %s", rec.Delinquent)
	}
	want := "Unable to retrieve tax information from the website after 3 attempts: navigation timed out"
	if rec.Notes != want {
		t.Errorf("Expected notes %q, got %q", want, rec.Notes)
	}
}
