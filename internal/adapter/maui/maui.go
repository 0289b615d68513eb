// Package maui drives the qPublic site of Maui County, Hawaii. The parcel
// report carries the current bill by installment, a good-through date for
// the payoff amount and per-year payment tables.
package maui

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/law-makers/taxcert/internal/acquire"
	"github.com/law-makers/taxcert/internal/adapter"
	"github.com/law-makers/taxcert/internal/browser"
	"github.com/law-makers/taxcert/internal/taxes"
)

const (
	searchURL = "https://qpublic.schneidercorp.com/Application.aspx?App=MauiCountyHI&PageType=Search"
	siteHost  = "qpublic.schneidercorp.com"

	termsButton = ".modal.in .btn.btn-primary.button-1, .modal.show .btn.btn-primary.button-1"
	parcelInput = "#ctlBodyPane_ctl02_ctl01_txtParcelID"
	searchBtn   = "#ctlBodyPane_ctl02_ctl01_btnSearch"

	summaryRows    = "#ctlBodyPane_ctl00_ctl01_dynamicSummaryData_divSummary tr"
	otherOwners    = "#ctlBodyPane_ctl02_ctl01_lblOtherNames"
	ownerTable     = "#ctlBodyPane_ctl02_ctl01_gvwAllOwners tbody tr th"
	valuationRow   = "#ctlBodyPane_ctl05_ctl01_gvValuation tbody tr"
	currentBill    = "#ctlBodyPane_ctl07_ctl01_gvwCurrentTaxBill"
	historicalTax  = "#ctlBodyPane_ctl08_ctl01_gvwHistoricalTax"
	paymentsTables = `table[id*="_gvwHistoricalTax_Payments"]`

	taxingAuthority = "Maui County Treasurer, 200 S. High Street, Wailuku, HI 96793, Ph: 808-270-8200"

	navigationTimeout = 120 * time.Second
	termsWait         = 4 * time.Second
	formWait          = 15 * time.Second
	// DefaultReportWait bounds the wait for the parcel report after a search.
	DefaultReportWait = 30 * time.Second

	// qPublic serves many counties and rejects bursts from one client.
	navigationRPS   = 0.5
	navigationBurst = 1
)

var (
	accountPattern = regexp.MustCompile(`^\d[\d-]{5,}\d$`)
	periodPattern  = regexp.MustCompile(`^(\d{4})-(\d+)$`)
	throughPattern = regexp.MustCompile(`(?i)through\s+(\d{1,2}/\d{1,2}/\d{4})`)
	ownerSplit     = regexp.MustCompile(`(?i),|fee owner`)
)

// Adapter implements acquire.Adapter for Maui County.
type Adapter struct {
	reportWait time.Duration
}

// New creates the Maui adapter.
func New() *Adapter {
	return &Adapter{reportWait: DefaultReportWait}
}

// Calendar: first installment due August 20 of the fiscal year, second
// February 20 of the next calendar year. Installments are numbered.
func Calendar() taxes.Calendar {
	return taxes.Calendar{
		Periods: []taxes.DueDay{
			{Month: time.August, Day: 20},
			{Month: time.February, Day: 20, YearOffset: 1},
		},
		Cadence:  "SEMI-ANNUAL",
		Labeling: taxes.LabelNumbered,
	}
}

func (a *Adapter) Jurisdiction() acquire.Jurisdiction {
	profile := browser.DefaultProfile()
	profile.UserAgent = adapter.UserAgent
	profile.NavigationTimeout = navigationTimeout
	return acquire.Jurisdiction{
		State:           "HI",
		County:          "maui",
		Name:            "Maui County",
		TaxingAuthority: taxingAuthority,
		Profile:         profile,
		Calendar:        Calendar(),
		Matcher:         taxes.MatchChronological,
		Throttle:        &acquire.Throttle{Host: siteHost, RPS: navigationRPS, Burst: navigationBurst},
	}
}

func (a *Adapter) Locate(ctx context.Context, page browser.Page, account string) (acquire.LocateResult, error) {
	account = strings.TrimSpace(account)
	if !accountPattern.MatchString(account) {
		return "", acquire.InvalidAccount(account, "parcel number must be a numeric TMK")
	}

	if err := page.Navigate(ctx, searchURL); err != nil {
		return "", err
	}
	// A terms modal is shown on the first visit of a browsing context.
	terms, err := adapter.Present(ctx, page, termsButton, termsWait)
	if err != nil {
		return "", err
	}
	if terms {
		if err := page.Click(ctx, termsButton); err != nil {
			return "", err
		}
	}
	if err := page.WaitFor(ctx, parcelInput, formWait); err != nil {
		return "", err
	}
	if err := page.Fill(ctx, parcelInput, account); err != nil {
		return "", err
	}
	if err := page.Submit(ctx, searchBtn); err != nil {
		return "", err
	}

	found, err := adapter.Present(ctx, page, summaryRows, a.reportWait)
	if err != nil {
		return "", err
	}
	if !found {
		return acquire.NotFound, nil
	}
	for _, sel := range []string{currentBill, historicalTax} {
		ok, err := page.Exists(ctx, sel)
		if err != nil {
			return "", err
		}
		if ok {
			return acquire.Found, nil
		}
	}
	return acquire.NoTaxHistory, nil
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

	var v taxes.Valuation
	doc.Find(summaryRows).Each(func(_ int, row *goquery.Selection) {
		label := strings.ToLower(adapter.Text(row.Find("strong").First()))
		if strings.Contains(label, "location address") {
			v.Address = adapter.Text(row.Find("span").First())
		}
	})

	for _, line := range adapter.Lines(doc.Find(otherOwners)) {
		line = strings.TrimSpace(strings.Replace(line, "Owner Names", "", 1))
		for _, name := range ownerSplit.Split(line, -1) {
			if name = strings.TrimSpace(name); name != "" {
				v.Owners = append(v.Owners, name)
			}
		}
	}
	doc.Find(ownerTable).Each(func(_ int, th *goquery.Selection) {
		if name := adapter.Text(th); name != "" {
			v.Owners = append(v.Owners, name)
		}
	})

	cells := adapter.Cells(doc.Find(valuationRow).First())
	if len(cells) >= 9 {
		v.Land = cells[4]
		v.Improvements = cells[5]
		v.Assessed = cells[6]
		v.Exemption = cells[7]
		v.Taxable = cells[8]
	}
	return v, nil
}

func (a *Adapter) ExtractHistory(ctx context.Context, page browser.Page, status taxes.Status) (taxes.Ledger, error) {
	doc, err := adapter.Snapshot(ctx, page)
	if err != nil {
		return taxes.Ledger{}, err
	}
	return readLedger(doc), nil
}

// readLedger combines the current bill with the payment history. Years that
// only appear in the history were settled in full; each is given one paid
// period per payment so the history still yields a dated entry.
func readLedger(doc *goquery.Document) taxes.Ledger {
	bills, goodThrough := readCurrentBill(doc)
	payments := readPayments(doc)

	billed := make(map[string]bool, len(bills))
	for _, b := range bills {
		billed[b.Year] = true
	}
	chrono := append([]taxes.Payment(nil), payments...)
	sort.SliceStable(chrono, func(i, j int) bool { return chrono[i].Date.Before(chrono[j].Date) })

	settled := make(map[string]*taxes.Bill)
	var order []string
	for _, p := range chrono {
		if billed[p.Year] {
			continue
		}
		b, ok := settled[p.Year]
		if !ok {
			b = &taxes.Bill{Year: p.Year}
			settled[p.Year] = b
			order = append(order, p.Year)
		}
		b.Periods = append(b.Periods, taxes.Period{Billed: p.Amount})
	}
	for _, y := range order {
		bills = append(bills, *settled[y])
	}

	return taxes.Ledger{Bills: bills, Payments: payments, GoodThrough: goodThrough}
}

// readCurrentBill groups "YYYY-N" installment rows into bills. The payoff row
// carries the good-through date.
func readCurrentBill(doc *goquery.Document) ([]taxes.Bill, string) {
	byYear := make(map[string]*taxes.Bill)
	var order []string
	goodThrough := ""

	doc.Find(currentBill + " tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := adapter.Cells(row)
		if len(cells) < 10 {
			return
		}
		if m := throughPattern.FindStringSubmatch(cells[1]); m != nil {
			if t := taxes.ParseDate(m[1]); !t.IsZero() {
				goodThrough = t.Format(taxes.DateLayout)
			}
			return
		}
		m := periodPattern.FindStringSubmatch(cells[0])
		if m == nil {
			return
		}
		n, err := strconv.Atoi(m[2])
		if err != nil || n < 1 {
			return
		}

		bill, ok := byYear[m[1]]
		if !ok {
			bill = &taxes.Bill{Year: m[1]}
			byYear[m[1]] = bill
			order = append(order, m[1])
		}
		for len(bill.Periods) < n {
			bill.Periods = append(bill.Periods, taxes.Period{})
		}
		bill.Periods[n-1] = taxes.Period{
			Billed: taxes.ParseMoney(cells[3]),
			Due:    taxes.ParseMoney(cells[9]),
		}
	})

	bills := make([]taxes.Bill, 0, len(order))
	for _, y := range order {
		bills = append(bills, *byYear[y])
	}
	return bills, goodThrough
}

func readPayments(doc *goquery.Document) []taxes.Payment {
	hist := doc.Find(historicalTax)
	var payments []taxes.Payment
	hist.Find("a[id^='btndiv']").Each(func(_ int, link *goquery.Selection) {
		year := adapter.Text(link)
		if len(year) != 4 {
			return
		}
		hist.Find("tr#tr" + year + " #div" + year + " " + paymentsTables + " tbody tr").Each(func(_ int, row *goquery.Selection) {
			cells := adapter.Cells(row)
			if len(cells) < 3 || strings.EqualFold(cells[0], "totals:") {
				return
			}
			amount := taxes.ParseMoney(cells[2]).Abs()
			if !amount.Positive() {
				return
			}
			payments = append(payments, taxes.Payment{
				Year:    year,
				Date:    taxes.ParseDate(cells[1]),
				RawDate: cells[1],
				Amount:  amount,
			})
		})
	})
	return payments
}
