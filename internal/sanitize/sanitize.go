// Package sanitize strips unsafe markup from AI-generated HTML before it
// reaches a browser.
package sanitize

import "github.com/microcosm-cc/bluemonday"

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "b", "i", "strong", "em",
		"ul", "ol", "li", "code", "pre",
		"h1", "h2", "h3", "h4", "h5", "h6",
	)
	p.AllowAttrs("class").Globally()
	return p
}

// HTML returns s with everything outside the allow-list removed.
func HTML(s string) string {
	return policy.Sanitize(s)
}
