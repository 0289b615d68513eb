// Package adapter holds what every jurisdiction adapter shares: the registry
// the front ends route through and the goquery helpers adapters read pages with.
package adapter

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/law-makers/taxcert/internal/acquire"
	"github.com/law-makers/taxcert/internal/browser"
)

// UserAgent is the desktop identity every county site is browsed with.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/69.0.3497.100 Safari/537.36"

// Snapshot captures the current document and parses it for querying.
// Adapters are stateless; every step takes a fresh snapshot.
func Snapshot(ctx context.Context, page browser.Page) (*goquery.Document, error) {
	raw, err := page.OuterHTML(ctx, "html")
	if err != nil {
		return nil, err
	}
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, acquire.Extraction("parse page: %v", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// Open navigates to url and snapshots it once selector is present.
func Open(ctx context.Context, page browser.Page, url, selector string, wait time.Duration) (*goquery.Document, error) {
	if err := page.Navigate(ctx, url); err != nil {
		return nil, err
	}
	if err := page.WaitFor(ctx, selector, wait); err != nil {
		return nil, err
	}
	return Snapshot(ctx, page)
}

// Present waits up to wait for selector and reports whether it appeared.
// Only a timeout counts as absence; other failures are returned.
func Present(ctx context.Context, page browser.Page, selector string, wait time.Duration) (bool, error) {
	err := page.WaitFor(ctx, selector, wait)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, browser.ErrTimeout):
		return false, nil
	default:
		return false, err
	}
}

// Text is the element's text with whitespace collapsed.
func Text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// Cells returns the collapsed text of each td/th in a row.
func Cells(row *goquery.Selection) []string {
	var out []string
	row.Find("td, th").Each(func(_ int, c *goquery.Selection) {
		out = append(out, Text(c))
	})
	return out
}

// Cell returns cells[i] or "" when the row is short.
func Cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// RowByLabel finds the first row of table whose first cell contains label.
func RowByLabel(table *goquery.Selection, label string) *goquery.Selection {
	return table.Find("tr").FilterFunction(func(_ int, row *goquery.Selection) bool {
		first := row.Find("td, th").First()
		return strings.Contains(strings.ToLower(Text(first)), strings.ToLower(label))
	}).First()
}

// OwnText returns the first non-blank text node directly under s, ignoring
// text inside child elements.
func OwnText(s *goquery.Selection) string {
	var out string
	s.Contents().EachWithBreak(func(_ int, c *goquery.Selection) bool {
		if goquery.NodeName(c) != "#text" {
			return true
		}
		out = strings.Join(strings.Fields(c.Text()), " ")
		return out == ""
	})
	return out
}

// Lines returns every non-blank text node under s, collapsed, in document
// order. Line breaks rendered by <br> separate entries.
func Lines(s *goquery.Selection) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
				out = append(out, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return out
}
