package acquire

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/taxcert/internal/browser"
	"github.com/law-makers/taxcert/internal/browser/browsertest"
	"github.com/law-makers/taxcert/internal/retry"
	"github.com/law-makers/taxcert/internal/taxes"
	"github.com/law-makers/taxcert/pkg/models"
)

// scriptedAdapter returns canned results; failLocate lists errors returned
// by successive Locate calls before it starts succeeding.
type scriptedAdapter struct {
	failLocate []error
	located    LocateResult
	status     taxes.Status
	valuation  taxes.Valuation
	ledger     taxes.Ledger
	historyErr error

	locateCalls int
	pages       []browser.Page
}

func (s *scriptedAdapter) Jurisdiction() Jurisdiction {
	return Jurisdiction{
		State:           "OH",
		County:          "mercer",
		Name:            "Mercer County",
		TaxingAuthority: "Mercer County Auditor",
		Profile:         browser.DefaultProfile(),
		Calendar: taxes.SemiAnnual(1,
			taxes.DueDay{Month: time.February, Day: 21},
			taxes.DueDay{Month: time.July, Day: 21}),
	}
}

func (s *scriptedAdapter) Locate(ctx context.Context, page browser.Page, account string) (LocateResult, error) {
	s.pages = append(s.pages, page)
	s.locateCalls++
	if s.locateCalls <= len(s.failLocate) {
		return "", s.failLocate[s.locateCalls-1]
	}
	if s.located == "" {
		return Found, nil
	}
	return s.located, nil
}

func (s *scriptedAdapter) Classify(ctx context.Context, page browser.Page) (taxes.Status, error) {
	return s.status, nil
}

func (s *scriptedAdapter) ExtractValuation(ctx context.Context, page browser.Page) (taxes.Valuation, error) {
	return s.valuation, nil
}

func (s *scriptedAdapter) ExtractHistory(ctx context.Context, page browser.Page, status taxes.Status) (taxes.Ledger, error) {
	return s.ledger, s.historyErr
}

var testNow = time.Date(2025, time.August, 1, 9, 0, 0, 0, time.UTC)

func newTestPipeline(provider browser.Provider) *Pipeline {
	return New(provider, retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond}, WithClock(func() time.Time { return testNow }))
}

func paidLedger() taxes.Ledger {
	return taxes.Ledger{
		Bills: []taxes.Bill{{Year: "2024", Periods: []taxes.Period{
			{Billed: taxes.Dollars(500)}, {Billed: taxes.Dollars(500)},
		}}},
		Payments: []taxes.Payment{{Date: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), Amount: taxes.Dollars(1000)}},
	}
}

func TestPipeline_Success(t *testing.T) {
	provider := &browsertest.Provider{}
	adapter := &scriptedAdapter{
		status:    taxes.StatusPaid,
		valuation: taxes.Valuation{Owners: []string{"SMITH JOHN"}, Address: "1 MAIN ST"},
		ledger:    paidLedger(),
	}

	rec, err := newTestPipeline(provider).Run(context.Background(), adapter, "10-001")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rec.Delinquent != models.DelinquentNone {
		t.Errorf("Expected NONE, got %s", rec.Delinquent)
	}
	if len(rec.TaxHistory) != 1 || rec.TaxHistory[0].PaymentType != models.PaymentAnnual {
		t.Errorf("Expected one Annual entry, got %+v", rec.TaxHistory)
	}
	if rec.ProcessedDate != "2025-08-01" || rec.ParcelNumber != "10-001" {
		t.Errorf("Unexpected header fields: %s %s", rec.ProcessedDate, rec.ParcelNumber)
	}
	if acquired, released := provider.Counts(); acquired != 1 || released != 1 {
		t.Errorf("Expected 1 acquire and 1 release, got %d and %d", acquired, released)
	}
}

func TestPipeline_FailsTwiceThenSucceeds(t *testing.T) {
	provider := &browsertest.Provider{}
	adapter := &scriptedAdapter{
		failLocate: []error{browser.ErrTimeout, Extraction("tax bill tabs missing")},
		status:     taxes.StatusPaid,
		ledger:     paidLedger(),
	}

	rec, err := newTestPipeline(provider).Run(context.Background(), adapter, "10-001")
	if err != nil {
		t.Fatalf("Expected success on third attempt, got %v", err)
	}
	if rec.Delinquent != models.DelinquentNone {
		t.Errorf("Expected NONE, got %s", rec.Delinquent)
	}
	if acquired, released := provider.Counts(); acquired != 3 || released != 3 {
		t.Errorf("Expected 3 acquires and 3 releases, got %d and %d", acquired, released)
	}
	if adapter.pages[0] == adapter.pages[1] || adapter.pages[1] == adapter.pages[2] {
		t.Error("Expected a fresh session on every attempt")
	}
	for i, p := range provider.Pages() {
		if !p.Closed() {
			t.Errorf("Expected session %d to be closed", i+1)
		}
	}
}

func TestPipeline_NotFoundIsNotRetried(t *testing.T) {
	provider := &browsertest.Provider{}
	adapter := &scriptedAdapter{located: NotFound}

	rec, err := newTestPipeline(provider).Run(context.Background(), adapter, "bogus")
	if err != nil {
		t.Fatalf("Expected not-found to be a successful outcome, got %v", err)
	}
	if rec.Delinquent != models.DelinquentNA || rec.Notes != "Parcel not found on the website." {
		t.Errorf("Unexpected not-found record: %s / %s", rec.Delinquent, rec.Notes)
	}
	if rec.TaxHistory == nil || len(rec.TaxHistory) != 0 {
		t.Errorf("Expected empty history, got %v", rec.TaxHistory)
	}
	if adapter.locateCalls != 1 {
		t.Errorf("Expected 1 locate call, got %d", adapter.locateCalls)
	}
}

func TestPipeline_NoTaxHistoryKeepsValuation(t *testing.T) {
	provider := &browsertest.Provider{}
	adapter := &scriptedAdapter{
		located:   NoTaxHistory,
		valuation: taxes.Valuation{Owners: []string{"DOE JANE"}, Land: "1000"},
	}

	rec, err := newTestPipeline(provider).Run(context.Background(), adapter, "10-002")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rec.Delinquent != models.DelinquentNA || rec.Notes != taxes.NoteNoTaxHistory {
		t.Errorf("Unexpected record: %s / %s", rec.Delinquent, rec.Notes)
	}
	if len(rec.OwnerName) != 1 || rec.OwnerName[0] != "DOE JANE" || rec.LandValue != "$1,000.00" {
		t.Errorf("Expected valuation to be kept, got %v %s", rec.OwnerName, rec.LandValue)
	}
}

func TestPipeline_InvalidAccountIsTerminal(t *testing.T) {
	provider := &browsertest.Provider{}
	adapter := &scriptedAdapter{
		failLocate: []error{InvalidAccount("123", "account must be book-map-item")},
	}

	rec, err := newTestPipeline(provider).Run(context.Background(), adapter, "123")
	if err == nil {
		t.Fatal("Expected an error")
	}
	if !errors.Is(err, ErrInvalidAccount) {
		t.Errorf("Expected ErrInvalidAccount, got %v", err)
	}
	if CodeOf(err) != CodeInvalidAccount {
		t.Errorf("Expected INVALID_ACCOUNT code, got %q", CodeOf(err))
	}
	if adapter.locateCalls != 1 {
		t.Errorf("Expected 1 attempt, got %d", adapter.locateCalls)
	}
	if rec.Delinquent != models.DelinquentUnknown {
		t.Errorf("Expected degraded record, got %s", rec.Delinquent)
	}
	if _, released := provider.Counts(); released != 1 {
		t.Errorf("Expected session released, got %d releases", released)
	}
}

func TestPipeline_ExhaustedReturnsDegradedRecord(t *testing.T) {
	provider := &browsertest.Provider{}
	adapter := &scriptedAdapter{
		status:     taxes.StatusUnpaid,
		historyErr: Extraction("payments table missing"),
	}

	rec, err := newTestPipeline(provider).Run(context.Background(), adapter, "10-003")
	if err == nil {
		t.Fatal("Expected an error after exhausting attempts")
	}
	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) || exhausted.Attempts != 3 {
		t.Errorf("Expected exhausted after 3 attempts, got %v", err)
	}
	if CodeOf(err) != CodeExtraction {
		t.Errorf("Expected EXTRACTION_ERROR, got %q", CodeOf(err))
	}
	if rec.Delinquent != models.DelinquentUnknown {
		t.Errorf("Expected UNKNOWN, got %s", rec.Delinquent)
	}
	if !strings.HasPrefix(rec.Notes, "Unable to retrieve tax information from the website after 3 attempts: ") {
		t.Errorf("Unexpected notes: %s", rec.Notes)
	}
	if !strings.Contains(rec.Notes, "payments table missing") {
		t.Errorf("Expected notes to carry the reason, got %s", rec.Notes)
	}
	if acquired, released := provider.Counts(); acquired != 3 || released != 3 {
		t.Errorf("Expected 3 acquires and 3 releases, got %d and %d", acquired, released)
	}
}

func TestPipeline_BrowserUnavailableIsRetried(t *testing.T) {
	provider := &browsertest.Provider{AcquireErr: browser.ErrUnavailable}
	adapter := &scriptedAdapter{}

	_, err := newTestPipeline(provider).Run(context.Background(), adapter, "10-004")
	if CodeOf(err) != CodeBrowserUnavailable {
		t.Errorf("Expected BROWSER_UNAVAILABLE, got %q (%v)", CodeOf(err), err)
	}
	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Errorf("Expected retries to be exhausted, got %v", err)
	}
	if adapter.locateCalls != 0 {
		t.Errorf("Expected adapter never to run, got %d locate calls", adapter.locateCalls)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err   error
		code  Code
		retry bool
	}{
		{browser.ErrTimeout, CodeTimeout, true},
		{context.DeadlineExceeded, CodeTimeout, true},
		{browser.ErrUnavailable, CodeBrowserUnavailable, true},
		{Extraction("x"), CodeExtraction, true},
		{InvalidAccount("a", "bad"), CodeInvalidAccount, false},
		{context.Canceled, CodeTransient, false},
		{errors.New("socket closed"), CodeTransient, true},
	}

	for _, tt := range tests {
		got := classify(tt.err)
		if got.Code != tt.code || got.Retry != tt.retry {
			t.Errorf("classify(%v): expected %s/%v, got %s/%v", tt.err, tt.code, tt.retry, got.Code, got.Retry)
		}
	}
}
