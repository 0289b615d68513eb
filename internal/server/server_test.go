package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/taxcert/internal/acquire"
	"github.com/law-makers/taxcert/internal/adapter"
	"github.com/law-makers/taxcert/internal/adapter/ohio"
	"github.com/law-makers/taxcert/internal/directory"
	"github.com/law-makers/taxcert/internal/taxes"
	"github.com/law-makers/taxcert/pkg/models"
)

type fakeRunner struct {
	rec      models.ParcelTaxRecord
	err      error
	calls    int
	account  string
	adapters []string
}

func (f *fakeRunner) Run(ctx context.Context, a acquire.Adapter, account string) (models.ParcelTaxRecord, error) {
	f.calls++
	f.account = account
	f.adapters = append(f.adapters, a.Jurisdiction().ID())
	return f.rec, f.err
}

func paidRecord() models.ParcelTaxRecord {
	return models.ParcelTaxRecord{
		ParcelNumber: "10-012345.0000",
		OwnerName:    []string{"SMITH JOHN"},
		Delinquent:   models.DelinquentNone,
		Notes:        "ALL PRIORS ARE PAID, 2024 TAXES ARE PAID",
	}
}

func newTestServer(runner Runner) http.Handler {
	registry := adapter.NewRegistry(ohio.Adapters()...)
	return New(registry, runner, directory.NewMemory(registry)).Handler()
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestTax_APISuccess(t *testing.T) {
	runner := &fakeRunner{rec: paidRecord()}
	rr := postJSON(newTestServer(runner), "/tax/OH/Mercer", `{"fetch_type":"api","account":" 10-012345.0000 "}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var body struct {
		Result models.ParcelTaxRecord `json:"result"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body.Result.Notes != paidRecord().Notes {
		t.Errorf("Unexpected notes: %s", body.Result.Notes)
	}
	if runner.account != "10-012345.0000" {
		t.Errorf("Expected trimmed account, got %q", runner.account)
	}
	if len(runner.adapters) != 1 || runner.adapters[0] != "OH/mercer" {
		t.Errorf("Expected mercer adapter, got %v", runner.adapters)
	}
}

func TestTax_APIFailureIs500(t *testing.T) {
	runner := &fakeRunner{rec: models.ParcelTaxRecord{Delinquent: models.DelinquentUnknown}, err: acquire.Extraction("no bills")}
	rr := postJSON(newTestServer(runner), "/tax/OH/mercer", `{"fetch_type":"api","account":"1"}`)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rr.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if !body.Error || body.Message == "" {
		t.Errorf("Expected error body, got %+v", body)
	}
}

func TestTax_HTMLFailureIs200(t *testing.T) {
	runner := &fakeRunner{err: acquire.InvalidAccount("x", "bad format")}
	form := url.Values{"fetch_type": {"html"}, "account": {"x"}}
	req := httptest.NewRequest(http.MethodPost, "/tax/OH/mercer", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	newTestServer(runner).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Expected HTML, got %s", rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Body.String(), "Invalid account number") {
		t.Errorf("Expected error message in view: %s", rr.Body.String())
	}
}

func TestTax_HTMLFailureShowsDegradedNote(t *testing.T) {
	degraded := taxes.Degraded("10-012345.0000", "Mercer County Auditor", 3, "navigation timed out", time.Now())
	runner := &fakeRunner{rec: degraded, err: acquire.NewError(acquire.CodeTimeout, "navigation timed out", acquire.ErrTimeout)}
	rr := postJSON(newTestServer(runner), "/tax/OH/mercer", `{"fetch_type":"html","account":"10-012345.0000"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "did not respond in time") {
		t.Errorf("Expected failure message in view: %s", body)
	}
	if !strings.Contains(body, "after 3 attempts: navigation timed out") {
		t.Errorf("Expected degraded note in view: %s", body)
	}
}

func TestTax_HTMLSuccessRendersRecord(t *testing.T) {
	runner := &fakeRunner{rec: paidRecord()}
	rr := postJSON(newTestServer(runner), "/tax/OH/mercer", `{"fetch_type":"HTML","account":"10-012345.0000"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Tax Certificate: 10-012345.0000") {
		t.Errorf("Expected rendered record: %s", rr.Body.String())
	}
}

func TestTax_InvalidFetchType(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestServer(runner)

	for _, body := range []string{`{"fetch_type":"pdf","account":"1"}`, `{"account":"1"}`, `not json`} {
		rr := postJSON(h, "/tax/OH/mercer", body)
		if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), MsgInvalidAccess) {
			t.Errorf("Body %s: expected Invalid Access view, got %d %s", body, rr.Code, rr.Body.String())
		}
	}
	if runner.calls != 0 {
		t.Errorf("Expected no acquisition, got %d", runner.calls)
	}
}

func TestTax_UnknownCounty(t *testing.T) {
	runner := &fakeRunner{}
	rr := postJSON(newTestServer(runner), "/tax/WA/adams", `{"fetch_type":"api","account":"1"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"error":true,"message":"Service Unavailable for this county"}` {
		t.Errorf("Unexpected body: %s", got)
	}
	if runner.calls != 0 {
		t.Errorf("Expected no acquisition, got %d", runner.calls)
	}
}

func TestCounties(t *testing.T) {
	h := newTestServer(&fakeRunner{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/misc/county?state=OH", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var body struct {
		Data []adapter.County `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(body.Data) != 6 || body.Data[0].Path != "OH/darke" {
		t.Errorf("Unexpected counties: %+v", body.Data)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/misc/county", nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without state, got %d", rr.Code)
	}
}

func TestTax_MethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestServer(&fakeRunner{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tax/OH/mercer", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rr.Code)
	}
}
