package linkrewrite

import (
	"strings"

	"golang.org/x/net/html"
)

// Link is a relative reference found in a page.
type Link struct {
	Tag    string
	Attr   string
	Target string // path without query or fragment
}

// RelativeLinks returns the relative href and src targets of a page, in
// document order.
func RelativeLinks(src string) []Link {
	z := html.NewTokenizer(strings.NewReader(src))
	var links []Link
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return links
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		for _, attr := range tok.Attr {
			if (attr.Key != "href" && attr.Key != "src") || !IsRelative(attr.Val) {
				continue
			}
			target := attr.Val
			if i := strings.IndexAny(target, "?#"); i >= 0 {
				target = target[:i]
			}
			if target == "" {
				continue
			}
			links = append(links, Link{Tag: tok.Data, Attr: attr.Key, Target: target})
		}
	}
}
