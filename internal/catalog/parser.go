package catalog

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/spacefreq/ificsync/internal/util"
)

// rowEntry is one table row on a listing page that carries a publication
// date and an anchor matching one of the accepted format tags.
type rowEntry struct {
	date string // dd.mm.yyyy as it appears on the page
	href string // raw href, possibly relative
}

// parseListingRows finds circular entries within an HTML node tree. It
// performs a depth-first search for <tr> elements, reads their visible text
// for a dd.mm.yyyy date, and picks the first <a> whose href contains one of
// the accepted tags. Rows without both are ignored.
func parseListingRows(root *html.Node, tags []string) []rowEntry {
	var out []rowEntry
	var walk func(*html.Node)

	walk = func(nd *html.Node) {
		if nd.Type == html.ElementNode && nd.Data == "tr" {
			date := util.FindCircularDate(rowText(nd))
			if date != "" {
				if href, ok := findTaggedAnchor(nd, tags); ok {
					out = append(out, rowEntry{date: date, href: href})
				}
			}
			// Rows do not nest; no need to descend further.
			return
		}
		for c := nd.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(root)
	return out
}

// rowText concatenates the text nodes under n, space separated.
func rowText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(nd *html.Node) {
		if nd.Type == html.TextNode {
			trimmed := strings.TrimSpace(nd.Data)
			if trimmed != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(trimmed)
			}
		}
		for c := nd.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// findTaggedAnchor returns the href of the first <a> under n whose target
// contains one of the accepted tags (case-insensitive).
func findTaggedAnchor(n *html.Node, tags []string) (string, bool) {
	var found string
	var walk func(*html.Node) bool

	walk = func(nd *html.Node) bool {
		if nd.Type == html.ElementNode && nd.Data == "a" {
			for _, a := range nd.Attr {
				if a.Key != "href" {
					continue
				}
				lower := strings.ToLower(a.Val)
				for _, tag := range tags {
					if strings.Contains(lower, strings.ToLower(tag)) {
						found = a.Val
						return true
					}
				}
				break
			}
		}
		for c := nd.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	return found, walk(n)
}
