package acquire

import (
	"context"
	"strings"

	"github.com/law-makers/taxcert/internal/browser"
	"github.com/law-makers/taxcert/internal/taxes"
)

// LocateResult is the outcome of finding a parcel on a site. NotFound and
// NoTaxHistory are structural facts about the parcel, not failures, and are
// never retried.
type LocateResult string

const (
	Found        LocateResult = "FOUND"
	NotFound     LocateResult = "NOT_FOUND"
	NoTaxHistory LocateResult = "NO_TAX_HISTORY"
)

// Jurisdiction describes one tax authority.
type Jurisdiction struct {
	State           string // two-letter code, e.g. "OH"
	County          string // lowercase, hyphenated, e.g. "mercer"
	Name            string // display name, e.g. "Mercer County"
	TaxingAuthority string
	Profile         browser.Profile
	Calendar        taxes.Calendar
	Matcher         taxes.Matcher
	// Throttle, when set, replaces the default navigation rate for the
	// site's host.
	Throttle        *Throttle
}

// Throttle is a per-host navigation rate.
type Throttle struct {
	Host  string
	RPS   float64
	Burst int
}

// ID is the routing path, e.g. "OH/mercer".
func (j Jurisdiction) ID() string {
	return strings.ToUpper(j.State) + "/" + strings.ToLower(j.County)
}

// Adapter drives one tax authority's site. Steps run in order against the
// same session; each may navigate further but must wait for what it reads
// with a bounded timeout.
type Adapter interface {
	Jurisdiction() Jurisdiction
	// Locate brings up the parcel, or reports that it does not exist or has
	// no published bills. A malformed account is an InvalidAccount error.
	Locate(ctx context.Context, page browser.Page, account string) (LocateResult, error)
	// Classify reads the loaded bills and returns the parcel's status.
	Classify(ctx context.Context, page browser.Page) (taxes.Status, error)
	// ExtractValuation reads owners, situs address and values.
	ExtractValuation(ctx context.Context, page browser.Page) (taxes.Valuation, error)
	// ExtractHistory reads the bills and payments the status needs.
	ExtractHistory(ctx context.Context, page browser.Page, status taxes.Status) (taxes.Ledger, error)
}
