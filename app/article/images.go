package article

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const inlineImageTag = `<img src="%s" style="max-width:100%%;">`

// SpliceImages inserts inline images into generated HTML, one after each
// heading tag in order. Images beyond the number of headings, or all of them
// when the body has no headings, are appended at the end.
func SpliceImages(body string, imageURLs []string) string {
	if len(imageURLs) == 0 {
		return body
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return appendImages(body, imageURLs)
	}

	headings := doc.Find("h2")
	placed := 0
	headings.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if placed >= len(imageURLs) {
			return false
		}
		s.AfterHtml(fmt.Sprintf(inlineImageTag, imageURLs[placed]))
		placed++
		return true
	})

	rendered, err := doc.Find("body").Html()
	if err != nil {
		return appendImages(body, imageURLs)
	}

	if placed < len(imageURLs) {
		rendered = appendImages(rendered, imageURLs[placed:])
	}

	return rendered
}

func appendImages(body string, imageURLs []string) string {
	var b strings.Builder
	b.WriteString(body)
	for _, url := range imageURLs {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf(inlineImageTag, url))
	}
	return b.String()
}
