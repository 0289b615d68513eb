package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/law-makers/taxcert/internal/adapter"
	"github.com/law-makers/taxcert/internal/adapter/ohio"
	"github.com/law-makers/taxcert/internal/taxes"
	"github.com/law-makers/taxcert/pkg/models"
)

func TestReadAccounts(t *testing.T) {
	in := strings.NewReader(`# Mercer parcels
10-012345.0000
  10-012346.0000  # corner lot

10-012345.0000
`)
	got, err := readAccounts(in)
	if err != nil {
		t.Fatalf("readAccounts failed: %v", err)
	}
	want := []string{"10-012345.0000", "10-012346.0000"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Accounts mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintSummary(t *testing.T) {
	rec := models.ParcelTaxRecord{
		ParcelNumber: "10-012345.0000",
		OwnerName:    []string{"SMITH JOHN", "SMITH MARY"},
		Delinquent:   models.DelinquentYes,
		Notes:        "2024 TAXES ARE DUE",
		TaxHistory: []models.TaxHistoryEntry{
			{Year: "2024", PaymentType: "First Installment", Status: models.StatusUnpaid, DueDate: "02/21/2025", PaidDate: "-"},
		},
	}

	var buf bytes.Buffer
	printSummary(&buf, rec)
	out := buf.String()

	for _, want := range []string{"10-012345.0000", "SMITH JOHN; SMITH MARY", "Tax History", "First Installment", "2024 TAXES ARE DUE"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected summary to contain %q:\n%s", want, out)
		}
	}
}

func TestPrintCounties(t *testing.T) {
	registry := adapter.NewRegistry(ohio.Adapters()...)

	var buf bytes.Buffer
	printCounties(&buf, registry.Counties("OH"))
	if got := strings.Count(buf.String(), "OH/"); got != 6 {
		t.Errorf("Expected 6 counties, got %d:\n%s", got, buf.String())
	}

	buf.Reset()
	printJurisdictions(&buf, registry.Jurisdictions())
	if !strings.Contains(buf.String(), "semi-annual, due 02/21 & 07/21") {
		t.Errorf("Expected Mercer calendar in listing:\n%s", buf.String())
	}

	buf.Reset()
	printCounties(&buf, nil)
	if !strings.Contains(buf.String(), "No counties available") {
		t.Errorf("Unexpected empty listing: %s", buf.String())
	}
}

func TestStampOrder(t *testing.T) {
	notFound := taxes.NotFound("10-999", "Mercer County Auditor", time.Now())

	rec := stampOrder(notFound, "", "")
	if rec.BorrowerName != "Invalid Parcel ID" {
		t.Errorf("Expected borrower of a missing parcel to survive, got %q", rec.BorrowerName)
	}

	rec = stampOrder(notFound, " ORD-7 ", "DOE JANE")
	if rec.OrderNumber != "ORD-7" || rec.BorrowerName != "DOE JANE" {
		t.Errorf("Expected order details stamped, got %q / %q", rec.OrderNumber, rec.BorrowerName)
	}
}
