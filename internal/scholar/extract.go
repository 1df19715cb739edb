package scholar

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/pubharvest/internal/publication"
)

// Extract maps every rendered row in html to a record, in page order.
func Extract(html string, sel Selectors, origin string) ([]publication.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse profile html: %w", err)
	}
	base, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin %q: %w", origin, err)
	}

	rows := doc.Find(sel.Row)
	items := make([]publication.Record, 0, rows.Length())
	rows.Each(func(_ int, row *goquery.Selection) {
		items = append(items, extractRow(row, sel, base))
	})
	return items, nil
}

func extractRow(row *goquery.Selection, sel Selectors, base *url.URL) publication.Record {
	var rec publication.Record

	link := row.Find(sel.Title).First()
	rec.Title = publication.CleanText(link.Text())
	if href, ok := link.Attr("href"); ok && strings.TrimSpace(href) != "" {
		rec.URL = resolve(base, href)
	}

	gray := row.Find(sel.Gray)
	rec.Authors = publication.CleanText(gray.Eq(0).Text())
	venue := publication.CleanText(gray.Eq(1).Text())

	if sel.Year != "" {
		if y := publication.CleanText(row.Find(sel.Year).First().Text()); publication.IsYear(y) {
			rec.Year = y
		}
	}
	if rec.Year == "" {
		rec.Year = publication.FindYear(venue)
	}
	rec.Venue = publication.StripYear(venue, rec.Year)
	return rec
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
