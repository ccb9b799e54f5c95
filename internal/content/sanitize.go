package content

import "github.com/microcosm-cc/bluemonday"

// Sanitizer strips unsafe markup from rich-text bodies before they are stored.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds the body policy: basic formatting, headings, lists, tables,
// links and images. Scripts, styles, frames and event attributes are dropped.
func NewSanitizer() *Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "hr", "ul", "ol", "li",
		"h2", "h3", "h4", "blockquote", "pre", "code",
		"strong", "b", "em", "i", "u", "s",
		"table", "thead", "tbody", "tr", "th", "td",
	)
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoReferrerOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.AllowAttrs("src", "alt").OnElements("img")
	return &Sanitizer{policy: p}
}

// Sanitize returns the cleaned HTML.
func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
