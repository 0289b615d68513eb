// Package output renders parcel tax records for people and files: JSON, CSV,
// a standalone HTML certificate and Markdown.
package output

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/law-makers/taxcert/pkg/models"
)

const stylesheet = `body{font-family:sans-serif;margin:2em}table{border-collapse:collapse;margin-bottom:1.5em}` +
	`th,td{border:1px solid #999;padding:4px 8px;text-align:left}.delinquent{color:#b00;font-weight:bold}`

// historyColumns are the tax history table headers, in record field order.
var historyColumns = []string{
	"Jurisdiction", "Year", "Payment Type", "Status", "Base Amount", "Amount Paid",
	"Amount Due", "Mailing Date", "Due Date", "Delq Date", "Paid Date", "Good Through",
}

func historyRow(e models.TaxHistoryEntry) []string {
	return []string{
		e.Jurisdiction, e.Year, e.PaymentType, e.Status, e.BaseAmount, e.AmountPaid,
		e.AmountDue, e.MailingDate, e.DueDate, e.DelqDate, e.PaidDate, e.GoodThroughDate,
	}
}

// RenderHTML writes rec as a complete HTML document.
func RenderHTML(w io.Writer, rec models.ParcelTaxRecord) error {
	return html.Render(w, recordDocument(rec))
}

// RenderErrorHTML writes the error view shown when a record could not be
// produced. Each non-blank note becomes a paragraph under the message.
func RenderErrorHTML(w io.Writer, message string, notes ...string) error {
	children := []*html.Node{
		element(atom.H1, nil, text("Tax Certificate")),
		element(atom.P, []html.Attribute{{Key: "class", Val: "error"}}, text(message)),
	}
	for _, note := range notes {
		if note = strings.TrimSpace(note); note != "" {
			children = append(children, element(atom.P, []html.Attribute{{Key: "class", Val: "note"}}, text(note)))
		}
	}
	return html.Render(w, document("Error", element(atom.Body, nil, children...)))
}

func recordDocument(rec models.ParcelTaxRecord) *html.Node {
	delinquent := []html.Attribute{}
	if rec.Delinquent == models.DelinquentYes {
		delinquent = append(delinquent, html.Attribute{Key: "class", Val: "delinquent"})
	}

	summary := element(atom.Table, []html.Attribute{{Key: "class", Val: "summary"}},
		labelRow("Processed Date", rec.ProcessedDate),
		labelRow("Order Number", rec.OrderNumber),
		labelRow("Borrower", rec.BorrowerName),
		labelRow("Owner", strings.Join(rec.OwnerName, "; ")),
		labelRow("Property Address", rec.PropertyAddress),
		labelRow("Parcel Number", rec.ParcelNumber),
		labelRow("Land Value", rec.LandValue),
		labelRow("Improvements", rec.Improvements),
		labelRow("Total Assessed Value", rec.TotalAssessedValue),
		labelRow("Exemption", rec.Exemption),
		labelRow("Total Taxable Value", rec.TotalTaxableValue),
		labelRow("Taxing Authority", rec.TaxingAuthority),
		element(atom.Tr, nil,
			element(atom.Th, nil, text("Delinquent")),
			element(atom.Td, delinquent, text(string(rec.Delinquent))),
		),
	)

	head := element(atom.Tr, nil)
	for _, c := range historyColumns {
		head.AppendChild(element(atom.Th, nil, text(c)))
	}
	history := element(atom.Table, []html.Attribute{{Key: "class", Val: "history"}},
		element(atom.Thead, nil, head))
	rows := element(atom.Tbody, nil)
	for _, e := range rec.TaxHistory {
		tr := element(atom.Tr, nil)
		for _, v := range historyRow(e) {
			tr.AppendChild(element(atom.Td, nil, text(v)))
		}
		rows.AppendChild(tr)
	}
	history.AppendChild(rows)

	body := element(atom.Body, nil,
		element(atom.H1, nil, text("Tax Certificate: "+rec.ParcelNumber)),
		summary,
		element(atom.H2, nil, text("Tax History")),
		history,
		element(atom.H2, nil, text("Notes")),
		element(atom.P, []html.Attribute{{Key: "class", Val: "notes"}}, text(rec.Notes)),
	)
	return document("Parcel "+rec.ParcelNumber, body)
}

func document(title string, body *html.Node) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(element(atom.Html, nil,
		element(atom.Head, nil,
			element(atom.Meta, []html.Attribute{{Key: "charset", Val: "utf-8"}}),
			element(atom.Title, nil, text(title)),
			element(atom.Style, nil, text(stylesheet)),
		),
		body,
	))
	return doc
}

func labelRow(label, value string) *html.Node {
	return element(atom.Tr, nil,
		element(atom.Th, nil, text(label)),
		element(atom.Td, nil, text(value)),
	)
}

func element(a atom.Atom, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
