// Package ohio drives the parcel pages of the auditor platform shared by
// several Ohio counties. Each county deployment differs only in host, due
// dates and the shape of its payments table.
package ohio

import (
	"context"
	"fmt"
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
	locationSelector = "#Location"
	billsSelector    = "#TaxBills"
	tabsSelector     = "#taxBill-tabs .nav-link"
	valuationRow     = `table[title="Valuation"] tbody tr`

	// DefaultBillsWait bounds the wait for the tax bill section once the
	// parcel is known to exist.
	DefaultBillsWait = 15 * time.Second
)

var tabLabel = regexp.MustCompile(`(\d{4})\s+Payable\s+(\d{4})`)

// PaymentTable locates a county's payments table. Column indexes of -1 mean
// the column is not published.
type PaymentTable struct {
	Rows       string
	DateCol    int
	YearCol    int
	ReceiptCol int
	AmountCol  int
}

// County is one deployment of the platform.
type County struct {
	Slug            string
	Name            string
	URL             string // format string taking the escaped parcel id
	TaxingAuthority string
	Calendar        taxes.Calendar
	Payments        PaymentTable
	Matcher         taxes.Matcher
}

// Adapter implements acquire.Adapter for one county.
type Adapter struct {
	county    County
	billsWait time.Duration
}

// New creates the adapter for a county.
func New(c County) *Adapter {
	return &Adapter{county: c, billsWait: DefaultBillsWait}
}

// Profile blocks everything but documents; the parcel page renders its
// tables server-side.
func Profile() browser.Profile {
	return browser.Profile{
		UserAgent:         adapter.UserAgent,
		NavigationTimeout: browser.DefaultNavigationTimeout,
		Blocked: []browser.ResourceType{
			browser.Stylesheet,
			browser.Font,
			browser.Image,
			browser.Script,
			browser.Media,
		},
	}
}

func (a *Adapter) Jurisdiction() acquire.Jurisdiction {
	return acquire.Jurisdiction{
		State:           "OH",
		County:          a.county.Slug,
		Name:            a.county.Name,
		TaxingAuthority: a.county.TaxingAuthority,
		Profile:         Profile(),
		Calendar:        a.county.Calendar,
		Matcher:         a.county.Matcher,
	}
}

func (a *Adapter) Locate(ctx context.Context, page browser.Page, account string) (acquire.LocateResult, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return "", acquire.InvalidAccount(account, "parcel id is empty")
	}
	if strings.ContainsAny(account, " \t/?&#") {
		return "", acquire.InvalidAccount(account, "parcel id contains invalid characters")
	}

	if err := page.Navigate(ctx, fmt.Sprintf(a.county.URL, url.QueryEscape(account))); err != nil {
		return "", err
	}
	exists, err := page.Exists(ctx, locationSelector)
	if err != nil {
		return "", err
	}
	if !exists {
		return acquire.NotFound, nil
	}

	ok, err := adapter.Present(ctx, page, billsSelector, a.billsWait)
	if err != nil {
		return "", err
	}
	if !ok {
		return acquire.NoTaxHistory, nil
	}
	if ok, err = page.Exists(ctx, tabsSelector); err != nil {
		return "", err
	}
	if !ok {
		return acquire.NoTaxHistory, nil
	}
	return acquire.Found, nil
}

func (a *Adapter) Classify(ctx context.Context, page browser.Page) (taxes.Status, error) {
	doc, err := adapter.Snapshot(ctx, page)
	if err != nil {
		return "", err
	}
	bills, err := readBills(doc)
	if err != nil {
		return "", err
	}
	return taxes.Classify(taxes.Ledger{Bills: bills}), nil
}

func (a *Adapter) ExtractValuation(ctx context.Context, page browser.Page) (taxes.Valuation, error) {
	doc, err := adapter.Snapshot(ctx, page)
	if err != nil {
		return taxes.Valuation{}, err
	}
	location := doc.Find(locationSelector + " .table").First()
	if location.Length() == 0 {
		return taxes.Valuation{}, acquire.Extraction("location table missing")
	}

	v := taxes.Valuation{
		Address: adapter.Text(location.Find("tr:nth-child(3) .TableValue").First()),
	}
	if owner := adapter.Text(location.Find("tr:nth-child(2) .TableValue").First()); owner != "" {
		v.Owners = []string{owner}
	}

	cells := adapter.Cells(doc.Find(valuationRow).First())
	if len(cells) >= 7 {
		v.Land = cells[4]
		v.Improvements = cells[5]
		v.Assessed = cells[6]
		v.Taxable = cells[6]
	}
	return v, nil
}

func (a *Adapter) ExtractHistory(ctx context.Context, page browser.Page, status taxes.Status) (taxes.Ledger, error) {
	doc, err := adapter.Snapshot(ctx, page)
	if err != nil {
		return taxes.Ledger{}, err
	}
	bills, err := readBills(doc)
	if err != nil {
		return taxes.Ledger{}, err
	}
	return taxes.Ledger{
		Bills:    bills,
		Payments: readPayments(doc, a.county.Payments),
	}, nil
}

// readBills reads one bill per "YYYY Payable YYYY" tab. Tabs whose pane lacks
// the billed or owed rows are skipped; if every tab is skipped the page is
// treated as not yet rendered.
func readBills(doc *goquery.Document) ([]taxes.Bill, error) {
	tabs := doc.Find(tabsSelector)
	if tabs.Length() == 0 {
		return nil, acquire.Extraction("tax bill tabs missing")
	}

	var bills []taxes.Bill
	tabs.Each(func(_ int, tab *goquery.Selection) {
		m := tabLabel.FindStringSubmatch(adapter.Text(tab))
		if m == nil {
			return
		}
		target, ok := tab.Attr("data-target")
		if !ok || target == "" {
			target, _ = tab.Attr("href")
		}
		if !strings.HasPrefix(target, "#") {
			return
		}
		pane := doc.Find(target).First()
		if pane.Length() == 0 {
			return
		}
		if bill, ok := readBill(m[1], pane); ok {
			bills = append(bills, bill)
		}
	})

	if len(bills) == 0 {
		return nil, acquire.Extraction("no readable tax bill in %d tabs", tabs.Length())
	}
	return bills, nil
}

// readBill reads the half-year columns of a bill pane. Rows are laid out as
// label, delinquent, first half, second half, total.
func readBill(year string, pane *goquery.Selection) (taxes.Bill, bool) {
	billed := adapter.RowByLabel(pane, "Taxes Billed")
	owed := pane.Find("tr.bg-gradient-warning").First()
	if owed.Length() == 0 {
		owed = adapter.RowByLabel(pane, "Taxes Due")
	}
	if billed.Length() == 0 || owed.Length() == 0 {
		return taxes.Bill{}, false
	}
	paid := adapter.RowByLabel(pane, "Payments Made")

	billedCells := adapter.Cells(billed)
	owedCells := adapter.Cells(owed)
	paidCells := adapter.Cells(paid)

	bill := taxes.Bill{Year: year}
	for col := 2; col <= 3; col++ {
		p := taxes.Period{
			Billed: taxes.ParseMoney(adapter.Cell(billedCells, col)),
			Due:    taxes.ParseMoney(adapter.Cell(owedCells, col)),
		}
		if paid.Length() > 0 && adapter.Cell(paidCells, col) != "" {
			// payments are published as credits
			p.Paid = taxes.ParseMoney(adapter.Cell(paidCells, col)).Abs()
			p.PaidObserved = true
		}
		bill.Periods = append(bill.Periods, p)
	}
	return bill, true
}

func readPayments(doc *goquery.Document, table PaymentTable) []taxes.Payment {
	var payments []taxes.Payment
	doc.Find(table.Rows).Each(func(_ int, row *goquery.Selection) {
		cells := adapter.Cells(row)
		if len(cells) <= table.AmountCol {
			return
		}
		amount := taxes.ParseMoney(adapter.Cell(cells, table.AmountCol)).Abs()
		if !amount.Positive() {
			return
		}
		raw := adapter.Cell(cells, table.DateCol)
		payments = append(payments, taxes.Payment{
			Year:    yearOnly(adapter.Cell(cells, table.YearCol)),
			Date:    taxes.ParseDate(raw),
			RawDate: raw,
			Amount:  amount,
			Receipt: adapter.Cell(cells, table.ReceiptCol),
		})
	})
	return payments
}

// yearOnly reduces "2024 Payable 2025" to its assessment year.
func yearOnly(s string) string {
	if m := tabLabel.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return strings.TrimSpace(s)
}
