package sanjuan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/law-makers/taxcert/internal/acquire"
	"github.com/law-makers/taxcert/internal/browser/browsertest"
	"github.com/law-makers/taxcert/internal/retry"
	"github.com/law-makers/taxcert/pkg/models"
)

const (
	resultsURL  = "https://parcel.sanjuancountywa.gov/PropertyAccess/SearchResults.aspx?cid=0"
	propertyURL = "https://parcel.sanjuancountywa.gov/PropertyAccess/Property.aspx?cid=0&year=2025&prop_id=12345"

	searchPage = `<html><body>
<input name="propertySearchOptions$geoid"><button id="propertySearchOptions_search">Search</button>
</body></html>`

	resultsPage = `<html><body>
<table id="propertySearchResults_resultsTable"><tbody>
  <tr><th>Property ID</th></tr>
  <tr><td>12345</td><td>351011002000</td><td>R</td><td>DOE JOHN</td><td>123 SPRING ST</td><td></td><td></td><td></td><td>$410,000</td><td><a href="Property.aspx?cid=0&amp;year=2025&amp;prop_id=12345">View Details</a></td></tr>
</tbody></table>
</body></html>`

	propertyHead = `<html><body>
<div id="propertyDetails"><table>
  <tr><td>Property ID:</td><td>12345</td><td>Geographic ID:</td><td>351011002000</td></tr>
  <tr><td>Address:</td><td>123 SPRING ST  FRIDAY HARBOR, WA 98250</td></tr>
  <tr><td>Name:</td><td>DOE JOHN and DOE JANE</td></tr>
  <tr><td>Mailing Address:</td><td>PO BOX 1 FRIDAY HARBOR, WA 98250</td></tr>
</table></div>
<table id="landDetails"><tbody>
  <tr><th>#</th><th>Type</th><th>Description</th><th>Acres</th><th>Sqft</th><th>Eff Front</th><th>Eff Depth</th><th>Prod Value</th><th>Market Value</th></tr>
  <tr><td>1</td><td>R</td><td>RESIDENTIAL</td><td>0.5</td><td>21780</td><td>0</td><td>0</td><td>$0</td><td>$250,000</td></tr>
</tbody></table>
<table id="taxingJurisdictionPanel_TaxingJurisdictionDetails1_ownerTable"><tbody>
  <tr><td>Owner:</td><td>DOE JOHN</td></tr>
  <tr><td>% Ownership:</td><td>100%</td></tr>
  <tr><td>Total Value:</td><td>$410,000</td></tr>
</tbody></table>`
)

func totalsRow(year, first, second, paid, due string) string {
	return `<tr id="ctl00_details_DetailTable_` + year + `_totalsRow"><td>` + year + `</td><td>Totals</td><td>` + first +
		`</td><td>` + second + `</td><td>$0.00</td><td>$0.00</td><td>` + paid + `</td><td>` + due + `</td></tr>`
}

func property(rows string) string {
	return propertyHead + `<table id="ctl00_details_detailsTable"><tbody>` + rows + `</tbody></table></body></html>`
}

func sitePage(propertyHTML string) *browsertest.Page {
	page := browsertest.NewPage(map[string]string{
		searchURL:   searchPage,
		resultsURL:  resultsPage,
		propertyURL: propertyHTML,
	})
	page.Submits[searchBtn] = resultsURL
	return page
}

func run(t *testing.T, page *browsertest.Page) models.ParcelTaxRecord {
	t.Helper()
	provider := &browsertest.Provider{NewPage: func(int) *browsertest.Page { return page }}
	now := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	p := acquire.New(provider, retry.Config{MaxAttempts: 1}, acquire.WithClock(func() time.Time { return now }))
	rec, err := p.Run(context.Background(), New(), "351011002000")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return rec
}

func TestSanJuan_SecondHalfDue(t *testing.T) {
	rows := totalsRow("2025", "$1,500.00", "$1,500.00", "$1,500.00", "$1,500.00") +
		totalsRow("2024", "$1,400.00", "$1,400.00", "$2,800.00", "$0.00")
	page := sitePage(property(rows))

	rec := run(t, page)

	if page.Filled(geoidInput) != "351011002000" {
		t.Errorf("Unexpected geoid input: %q", page.Filled(geoidInput))
	}
	if diff := cmp.Diff([]string{searchURL, resultsURL, propertyURL}, page.Visits()); diff != "" {
		t.Errorf("Visits mismatch (-want +got):\n%s", diff)
	}
	if rec.Delinquent != models.DelinquentYes {
		t.Errorf("Expected YES, got %s", rec.Delinquent)
	}
	want := []models.TaxHistoryEntry{
		{
			Jurisdiction: "County", Year: "2025", PaymentType: "First Installment", Status: "Paid",
			BaseAmount: "$1,500.00", AmountPaid: "$1,500.00", AmountDue: "$0.00",
			MailingDate: "N/A", DueDate: "04/30/2025", DelqDate: "05/01/2025", PaidDate: "-",
		},
		{
			Jurisdiction: "County", Year: "2025", PaymentType: "Second Installment", Status: "Unpaid",
			BaseAmount: "$1,500.00", AmountPaid: "$0.00", AmountDue: "$1,500.00",
			MailingDate: "N/A", DueDate: "10/31/2025", DelqDate: "11/01/2025", PaidDate: "-",
		},
	}
	if diff := cmp.Diff(want, rec.TaxHistory); diff != "" {
		t.Errorf("History mismatch (-want +got):\n%s", diff)
	}
	wantNotes := "PRIOR YEAR(S) TAXES ARE PAID, 2025 1ST INSTALLMENT PAID, 2ND INSTALLMENT DUE, NORMALLY TAXES ARE PAID SEMI-ANNUAL, NORMAL DUE DATES ARE 04/30 & 10/31"
	if rec.Notes != wantNotes {
		t.Errorf("Expected notes %q, got %q", wantNotes, rec.Notes)
	}
	if diff := cmp.Diff([]string{"DOE JOHN", "DOE JANE"}, rec.OwnerName); diff != "" {
		t.Errorf("Owners mismatch (-want +got):\n%s", diff)
	}
	if rec.PropertyAddress != "123 SPRING ST FRIDAY HARBOR, WA 98250" {
		t.Errorf("Unexpected address: %s", rec.PropertyAddress)
	}
	if rec.LandValue != "$250,000.00" || rec.TotalTaxableValue != "$410,000.00" {
		t.Errorf("Unexpected valuation: %s / %s", rec.LandValue, rec.TotalTaxableValue)
	}
}

func TestSanJuan_AnnualBillPaid(t *testing.T) {
	page := sitePage(property(totalsRow("2025", "$45.00", "$0.00", "$45.00", "$0.00")))

	rec := run(t, page)

	if rec.Delinquent != models.DelinquentNone {
		t.Errorf("Expected NONE, got %s", rec.Delinquent)
	}
	want := []models.TaxHistoryEntry{{
		Jurisdiction: "County", Year: "2025", PaymentType: "Annual", Status: "Paid",
		BaseAmount: "$45.00", AmountPaid: "$45.00", AmountDue: "$0.00",
		MailingDate: "N/A", DueDate: "04/30/2025", DelqDate: "05/01/2025", PaidDate: "-",
	}}
	if diff := cmp.Diff(want, rec.TaxHistory); diff != "" {
		t.Errorf("History mismatch (-want +got):\n%s", diff)
	}
	wantNotes := "ALL PRIORS ARE PAID, 2025 TAXES ARE PAID, NORMALLY TAXES ARE PAID ANNUAL, NORMAL DUE DATES ARE 04/30 & 10/31"
	if rec.Notes != wantNotes {
		t.Errorf("Expected notes %q, got %q", wantNotes, rec.Notes)
	}
}

func TestLocate(t *testing.T) {
	a := &Adapter{resultWait: time.Millisecond}
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		page := sitePage("")
		page.Submits[searchBtn] = searchURL
		got, err := a.Locate(ctx, page, "351011009999")
		if err != nil || got != acquire.NotFound {
			t.Errorf("Expected NotFound, got %v, %v", got, err)
		}
	})

	t.Run("empty results", func(t *testing.T) {
		page := sitePage("")
		page.Pages[resultsURL] = `<html><body><table id="propertySearchResults_resultsTable"><tbody><tr><th>Property ID</th></tr></tbody></table></body></html>`
		got, err := a.Locate(ctx, page, "351011009999")
		if err != nil || got != acquire.NotFound {
			t.Errorf("Expected NotFound, got %v, %v", got, err)
		}
	})

	t.Run("no tax history", func(t *testing.T) {
		page := sitePage(property(""))
		got, err := a.Locate(ctx, page, "351011002000")
		if err != nil || got != acquire.NoTaxHistory {
			t.Errorf("Expected NoTaxHistory, got %v, %v", got, err)
		}
	})

	t.Run("invalid account", func(t *testing.T) {
		_, err := a.Locate(ctx, sitePage(""), "abc")
		if !errors.Is(err, acquire.ErrInvalidAccount) {
			t.Errorf("Expected ErrInvalidAccount, got %v", err)
		}
	})
}

func TestBill(t *testing.T) {
	b := bill("2025", 150000, 150000, 200000)
	if b.Periods[0].Due != 50000 || b.Periods[1].Due != 150000 {
		t.Errorf("Expected balance charged to the second half first, got %+v", b.Periods)
	}

	single := bill("2025", 0, 4500, 4500)
	if len(single.Periods) != 1 || single.Periods[0].Billed != 4500 {
		t.Errorf("Expected one annual period, got %+v", single.Periods)
	}
}

func TestJurisdiction(t *testing.T) {
	j := New().Jurisdiction()
	if j.ID() != "WA/san-juan" {
		t.Errorf("Unexpected id: %s", j.ID())
	}
	if got := j.Calendar.NormalDueDates(); got != "04/30 & 10/31" {
		t.Errorf("Unexpected due dates: %s", got)
	}
}
