package convert

// html.go — HTML → Markdown.
//
// A goquery pre-pass strips script/style/nav noise and promotes the document
// <title> to a leading H1 when the body itself has no top-level heading.
// The cleaned body is then handed to html-to-markdown.

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlNoiseSelectors are removed before conversion. They carry no prose.
var htmlNoiseSelectors = []string{"script", "style", "noscript", "iframe"}

func (c *Converter) convertHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Unparseable input: fall back to a fenced block rather than failing.
		return "```html\n" + html + "\n```", nil
	}

	for _, sel := range htmlNoiseSelectors {
		doc.Find(sel).Remove()
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	body, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(body) == "" {
		body = html
	}

	out, err := c.htmlConverter.ConvertString(body)
	if err != nil {
		return "```html\n" + html + "\n```", nil
	}
	out = strings.TrimSpace(out)

	if title != "" && doc.Find("h1").Length() == 0 {
		if out == "" {
			return "# " + title + "\n", nil
		}
		return "# " + title + "\n\n" + out, nil
	}
	return out, nil
}
