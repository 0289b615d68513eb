// Package sanjuan drives the PropertyAccess site of San Juan County,
// Washington. Parcels are searched by geographic id; the property page lists
// one totals row per tax year with both halves, the amount paid and the
// amount still due.
package sanjuan

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/law-makers/taxcert/internal/acquire"
	"github.com/law-makers/taxcert/internal/adapter"
	"github.com/law-makers/taxcert/internal/browser"
	"github.com/law-makers/taxcert/internal/taxes"
)

const (
	searchURL = "https://parcel.sanjuancountywa.gov/PropertyAccess/PropertySearch.aspx?cid=0"

	geoidInput   = "input[name='propertySearchOptions$geoid']"
	searchBtn    = "#propertySearchOptions_search"
	resultsTable = "#propertySearchResults_resultsTable"
	resultLinks  = resultsTable + " tbody tr td:nth-child(10) a[href]"

	propertyDetails = "#propertyDetails"
	landRows        = "#landDetails tbody tr"
	valueRows       = "#taxingJurisdictionPanel_TaxingJurisdictionDetails1_ownerTable tbody tr"
	totalsRows      = `#ctl00_details_detailsTable tr[id*="DetailTable"][id$="totalsRow"]`

	taxingAuthority = "San Juan County Treasurer, 350 Court St, Friday Harbor, WA 98250"

	// DefaultResultWait bounds the wait for the search results.
	DefaultResultWait = 20 * time.Second
)

var (
	accountPattern = regexp.MustCompile(`^\d[\d-]{4,}\d$`)
	yearPattern    = regexp.MustCompile(`^(\d{4})`)
	ownerSplit     = regexp.MustCompile(`\s+and\s+|\s{2,}`)
)

// Adapter implements acquire.Adapter for San Juan County.
type Adapter struct {
	resultWait time.Duration
}

// New creates the San Juan adapter.
func New() *Adapter {
	return &Adapter{resultWait: DefaultResultWait}
}

// Calendar: first half due April 30, second half October 31 of the tax year.
// Small bills are payable in full by the first due date.
func Calendar() taxes.Calendar {
	return taxes.SemiAnnual(0,
		taxes.DueDay{Month: time.April, Day: 30},
		taxes.DueDay{Month: time.October, Day: 31},
	)
}

func (a *Adapter) Jurisdiction() acquire.Jurisdiction {
	profile := browser.DefaultProfile()
	profile.UserAgent = adapter.UserAgent
	return acquire.Jurisdiction{
		State:           "WA",
		County:          "san-juan",
		Name:            "San Juan County",
		TaxingAuthority: taxingAuthority,
		Profile:         profile,
		Calendar:        Calendar(),
	}
}

func (a *Adapter) Locate(ctx context.Context, page browser.Page, account string) (acquire.LocateResult, error) {
	account = strings.TrimSpace(account)
	if !accountPattern.MatchString(account) {
		return "", acquire.InvalidAccount(account, "parcel number must be a numeric geographic id")
	}

	if err := page.Navigate(ctx, searchURL); err != nil {
		return "", err
	}
	if err := page.WaitFor(ctx, geoidInput, 0); err != nil {
		return "", err
	}
	if err := page.Fill(ctx, geoidInput, account); err != nil {
		return "", err
	}
	if err := page.Submit(ctx, searchBtn); err != nil {
		return "", err
	}

	ok, err := adapter.Present(ctx, page, resultsTable, a.resultWait)
	if err != nil {
		return "", err
	}
	if !ok {
		// No match re-renders the search form without a results table.
		onForm, err := page.Exists(ctx, geoidInput)
		if err != nil {
			return "", err
		}
		if onForm {
			return acquire.NotFound, nil
		}
		return "", acquire.Extraction("search results did not render")
	}

	detail, err := detailURL(ctx, page)
	if err != nil {
		return "", err
	}
	if detail == "" {
		return acquire.NotFound, nil
	}

	if err := page.Navigate(ctx, detail); err != nil {
		return "", err
	}
	if err := page.WaitFor(ctx, propertyDetails, 0); err != nil {
		return "", err
	}
	hasBills, err := page.Exists(ctx, totalsRows)
	if err != nil {
		return "", err
	}
	if !hasBills {
		return acquire.NoTaxHistory, nil
	}
	return acquire.Found, nil
}

// detailURL returns the absolute link to the first matching property, or ""
// when the results table lists none.
func detailURL(ctx context.Context, page browser.Page) (string, error) {
	doc, err := adapter.Snapshot(ctx, page)
	if err != nil {
		return "", err
	}
	href, ok := doc.Find(resultLinks).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", nil
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", acquire.Extraction("property link %q: %v", href, err)
	}
	current, err := page.Location(ctx)
	if err != nil {
		return "", err
	}
	base, err := url.Parse(current)
	if err != nil {
		return "", acquire.Extraction("results location %q: %v", current, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func (a *Adapter) Classify(ctx context.Context, page browser.Page) (taxes.Status, error) {
	doc, err := adapter.Snapshot(ctx, page)
	if err != nil {
		return "", err
	}
	return taxes.Classify(readLedger(doc)), nil
}

func (a *Adapter) ExtractValuation(ctx context.Context, page browser.Page) (taxes.Valuation, error) {
	doc, err := adapter.Snapshot(ctx, page)
	if err != nil {
		return taxes.Valuation{}, err
	}
	details := doc.Find(propertyDetails)

	var v taxes.Valuation
	v.Address = adapter.Text(valueAfter(details, "Address:"))
	for _, name := range ownerSplit.Split(strings.TrimSpace(valueAfter(details, "Name:").Text()), -1) {
		if name = strings.TrimSpace(name); name != "" {
			v.Owners = append(v.Owners, name)
		}
	}

	// The site publishes the market value of the land only.
	land := adapter.Cell(adapter.Cells(doc.Find(landRows).Eq(1)), 8)
	v.Land = land
	v.Assessed = land
	v.Taxable = adapter.Cell(adapter.Cells(doc.Find(valueRows).Eq(2)), 1)
	return v, nil
}

func (a *Adapter) ExtractHistory(ctx context.Context, page browser.Page, status taxes.Status) (taxes.Ledger, error) {
	doc, err := adapter.Snapshot(ctx, page)
	if err != nil {
		return taxes.Ledger{}, err
	}
	return readLedger(doc), nil
}

// valueAfter returns the cell following the first cell labelled label.
func valueAfter(s *goquery.Selection, label string) *goquery.Selection {
	return s.Find("td").FilterFunction(func(_ int, td *goquery.Selection) bool {
		return strings.EqualFold(adapter.Text(td), label)
	}).First().Next()
}

// readLedger reads one bill per totals row. Payments are not itemized.
func readLedger(doc *goquery.Document) taxes.Ledger {
	var l taxes.Ledger
	doc.Find(totalsRows).Each(func(_ int, row *goquery.Selection) {
		cells := adapter.Cells(row)
		if len(cells) < 8 {
			return
		}
		m := yearPattern.FindStringSubmatch(cells[0])
		if m == nil {
			return
		}
		l.Bills = append(l.Bills, bill(m[1],
			taxes.ParseMoney(cells[2]), taxes.ParseMoney(cells[3]), taxes.ParseMoney(cells[7])))
	})
	return l
}

// bill turns a year's halves into periods. A year with only one billed half
// was payable in full and becomes a single period. The balance is charged to
// the second half first.
func bill(year string, first, second, due taxes.Money) taxes.Bill {
	if !first.Positive() || !second.Positive() {
		return taxes.Bill{Year: year, Periods: []taxes.Period{{Billed: first + second, Due: due}}}
	}
	secondDue := due
	if secondDue > second {
		secondDue = second
	}
	return taxes.Bill{Year: year, Periods: []taxes.Period{
		{Billed: first, Due: due - secondDue},
		{Billed: second, Due: secondDue},
	}}
}
