// Package maricopa drives the Maricopa County, Arizona treasurer site. Parcels
// are searched by book, map and item through the home page form; the summary,
// statement and activity pages are then read from the same session.
package maricopa

import (
	"context"
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
	baseURL      = "https://treasurer.maricopa.gov"
	homeURL      = baseURL + "/"
	summaryURL   = baseURL + "/Parcel/Summary.aspx?List=All"
	statementURL = baseURL + "/Parcel/DetailedTaxStatement.aspx"
	activityURL  = baseURL + "/Parcel/Activities.aspx"

	bookInput  = "#txtParcelNumBook"
	mapInput   = "#txtParcelNumMap"
	itemInput  = "#txtParcelNumItem"
	searchBtn  = "#btnGo"
	parcelMark = "#cphMainContent_cphRightColumn_divViewAdditionalYears"

	taxYears   = "#cphMainContent_cphRightColumn_gvTaxYears"
	activities = "#cphMainContent_cphRightColumn_Activities1_gvActs"

	statementPrefix = "#cphMainContent_cphRightColumn_dtlTaxBill_"
	nameAddress     = statementPrefix + "ParcelNASitusLegal_lblNameAddress"
	situsAddress    = statementPrefix + "ParcelNASitusLegal_lblSitusAddress"
	assessedValue   = statementPrefix + "lblPrimaryLandAssessedValue"
	exemptionValue  = statementPrefix + "lblPrimaryExemptionAssessedValue"
	taxableValue    = statementPrefix + "lblPrimaryTotalAssessedValue"

	taxingAuthority = "Maricopa County Treasurer, 301 W Jefferson St #100, Phoenix, AZ 85003, Ph: 602-506-8511"

	// DefaultResultWait bounds the wait for the parcel page after a search.
	DefaultResultWait = 20 * time.Second
)

var accountPattern = regexp.MustCompile(`^(\d{3})-?(\d{2})-?(\d{3}[A-Za-z]?)$`)

// Adapter implements acquire.Adapter for Maricopa County.
type Adapter struct {
	resultWait time.Duration
}

// New creates the Maricopa adapter.
func New() *Adapter {
	return &Adapter{resultWait: DefaultResultWait}
}

// Calendar: first half due October 1 of the assessment year, second half
// March 1 of the following year.
func Calendar() taxes.Calendar {
	return taxes.Calendar{
		Periods: []taxes.DueDay{
			{Month: time.October, Day: 1},
			{Month: time.March, Day: 1, YearOffset: 1},
		},
		Cadence: "SEMI-ANNUAL",
	}
}

func (a *Adapter) Jurisdiction() acquire.Jurisdiction {
	profile := browser.DefaultProfile()
	profile.UserAgent = adapter.UserAgent
	return acquire.Jurisdiction{
		State:           "AZ",
		County:          "maricopa",
		Name:            "Maricopa County",
		TaxingAuthority: taxingAuthority,
		Profile:         profile,
		Calendar:        Calendar(),
	}
}

// SplitAccount splits "123-45-678A" into book, map and item.
func SplitAccount(account string) (book, mapNo, item string, err error) {
	m := accountPattern.FindStringSubmatch(strings.TrimSpace(account))
	if m == nil {
		return "", "", "", acquire.InvalidAccount(account, "parcel number must be book-map-item, e.g. 123-45-678")
	}
	return m[1], m[2], strings.ToUpper(m[3]), nil
}

func (a *Adapter) Locate(ctx context.Context, page browser.Page, account string) (acquire.LocateResult, error) {
	book, mapNo, item, err := SplitAccount(account)
	if err != nil {
		return "", err
	}

	if err := page.Navigate(ctx, homeURL); err != nil {
		return "", err
	}
	if err := page.WaitFor(ctx, bookInput, 0); err != nil {
		return "", err
	}
	for _, f := range [][2]string{{bookInput, book}, {mapInput, mapNo}, {itemInput, item}} {
		if err := page.Fill(ctx, f[0], f[1]); err != nil {
			return "", err
		}
	}
	if err := page.Submit(ctx, searchBtn); err != nil {
		return "", err
	}

	ok, err := adapter.Present(ctx, page, parcelMark, a.resultWait)
	if err != nil {
		return "", err
	}
	if ok {
		return acquire.Found, nil
	}
	// The site re-renders the search form when a parcel does not exist.
	onForm, err := page.Exists(ctx, bookInput)
	if err != nil {
		return "", err
	}
	if onForm {
		return acquire.NotFound, nil
	}
	return "", acquire.Extraction("parcel page did not render after search")
}

func (a *Adapter) Classify(ctx context.Context, page browser.Page) (taxes.Status, error) {
	bills, err := a.readSummary(ctx, page)
	if err != nil {
		return "", err
	}
	return taxes.Classify(taxes.Ledger{Bills: bills}), nil
}

func (a *Adapter) ExtractValuation(ctx context.Context, page browser.Page) (taxes.Valuation, error) {
	doc, err := adapter.Open(ctx, page, statementURL, nameAddress, 0)
	if err != nil {
		return taxes.Valuation{}, err
	}
	v := taxes.Valuation{
		Address:   adapter.Text(doc.Find(situsAddress)),
		Assessed:  adapter.Text(doc.Find(assessedValue)),
		Exemption: adapter.Text(doc.Find(exemptionValue)),
		Taxable:   adapter.Text(doc.Find(taxableValue)),
	}
	if owner := adapter.OwnText(doc.Find(nameAddress).Children().First()); owner != "" {
		v.Owners = []string{owner}
	}
	return v, nil
}

func (a *Adapter) ExtractHistory(ctx context.Context, page browser.Page, status taxes.Status) (taxes.Ledger, error) {
	bills, err := a.readSummary(ctx, page)
	if err != nil {
		return taxes.Ledger{}, err
	}
	l := taxes.Ledger{Bills: bills}
	if status == taxes.StatusUnpaid {
		// unpaid entries carry no paid date
		return l, nil
	}

	doc, err := adapter.Open(ctx, page, activityURL, activities, 0)
	if err != nil {
		return taxes.Ledger{}, err
	}
	l.Payments = readActivities(doc)
	return l, nil
}

func (a *Adapter) readSummary(ctx context.Context, page browser.Page) ([]taxes.Bill, error) {
	doc, err := adapter.Open(ctx, page, summaryURL, taxYears, 0)
	if err != nil {
		return nil, err
	}
	var bills []taxes.Bill
	doc.Find(taxYears + " tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := adapter.Cells(row)
		if len(cells) < 4 || !isYear(cells[0]) {
			return
		}
		bills = append(bills, halves(cells[0], taxes.ParseMoney(cells[2]), taxes.ParseMoney(cells[3])))
	})
	return bills, nil
}

// halves splits a year's totals into the two halves the site does not
// itemize. Any balance is charged to the second half first, since the first
// half cannot be outstanding while the second is paid.
func halves(year string, billed, due taxes.Money) taxes.Bill {
	second := billed / 2
	first := billed - second

	secondDue := due
	if secondDue > second {
		secondDue = second
	}
	firstDue := due - secondDue

	return taxes.Bill{Year: year, Periods: []taxes.Period{
		{Billed: first, Due: firstDue},
		{Billed: second, Due: secondDue},
	}}
}

func readActivities(doc *goquery.Document) []taxes.Payment {
	var payments []taxes.Payment
	doc.Find(activities + " tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := adapter.Cells(row)
		if len(cells) < 5 || !isYear(cells[0]) {
			return
		}
		amount := taxes.ParseMoney(cells[2]).Abs()
		if !amount.Positive() {
			return
		}
		payments = append(payments, taxes.Payment{
			Year:    cells[0],
			Date:    taxes.ParseDate(cells[4]),
			RawDate: cells[4],
			Amount:  amount,
			Receipt: cells[1],
		})
	})
	return payments
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
