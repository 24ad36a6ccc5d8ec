package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Text flattens HTML into visible text followed by every href value, one
// per line, so profile links hidden behind icons still reach the
// extractor. Input that is not HTML comes back unchanged.
func Text(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script, style, noscript, template, svg").Remove()

	var b strings.Builder
	b.WriteString(collapse(doc.Text()))

	seen := make(map[string]bool)
	doc.Find("a[href], link[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || seen[href] || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		seen[href] = true
		b.WriteByte('\n')
		b.WriteString(strings.TrimPrefix(href, "mailto:"))
	})
	return b.String()
}

// Title returns the trimmed <title> text, or "".
func Title(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
