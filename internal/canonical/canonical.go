// Package canonical derives the canonical plain-text form of an email body.
// Evidence grounding in the executor checks literal substrings against this
// form, so extraction and execution must canonicalize identically.
package canonical

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockSelectors are elements rendered as their own line in canonical text
const blockSelectors = "p, div, li, br, tr, h1, h2, h3, h4, h5, h6, blockquote"

var (
	multiSpace   = regexp.MustCompile(`[ \t]+`)
	multiNewline = regexp.MustCompile(`\n\n\n+`)
)

// Text converts an HTML email body into canonical plain text. Script and
// style content is dropped, block elements become line breaks, and
// whitespace is normalized. Plain-text input passes through Normalize only.
func Text(body string) (string, error) {
	if !strings.Contains(body, "<") {
		return Normalize(body), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", &CanonicalizeError{Message: "failed to parse HTML body", Cause: err}
	}

	doc.Find("script, style, head").Remove()

	// Insert newlines around block elements so goquery's text flattening
	// keeps paragraph boundaries.
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml("\n")
	})

	return Normalize(doc.Text()), nil
}

// EmailBody returns the canonical plain-text body of an email, preferring
// the HTML part when present. Extraction and decision building must both go
// through this so evidence spans ground against identical text.
func EmailBody(html, text string) (string, error) {
	if html != "" {
		return Text(html)
	}
	return Normalize(text), nil
}

// Normalize collapses runs of spaces and blank lines and trims each line.
// It is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, " ", " ")

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = multiSpace.ReplaceAllString(strings.TrimSpace(line), " ")
		cleaned = append(cleaned, line)
	}

	result := strings.Join(cleaned, "\n")
	result = multiNewline.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// Links extracts the href of every anchor in an HTML body, deduplicated in
// document order. Plain-text bodies yield no links.
func Links(body string) ([]string, error) {
	if !strings.Contains(body, "<") {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, &CanonicalizeError{Message: "failed to parse HTML body", Cause: err}
	}

	seen := make(map[string]bool)
	links := make([]string, 0)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" || strings.HasPrefix(href, "mailto:") {
			return
		}
		if !seen[href] {
			seen[href] = true
			links = append(links, href)
		}
	})

	return links, nil
}
