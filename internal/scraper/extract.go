package scraper

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/listingworker/helpers"
	"sjsage522/listingworker/internal/models"
)

// Extractor turns listing pages into records
type Extractor struct {
	site    *SiteConfig
	regexes map[string]*regexp.Regexp
}

// NewExtractor compiles the field regexes of site
func NewExtractor(site *SiteConfig) (*Extractor, error) {
	e := &Extractor{site: site, regexes: make(map[string]*regexp.Regexp)}

	fields := site.Fields
	if site.Detail != nil {
		fields = append(append([]FieldSpec{}, fields...), site.Detail.Fields...)
	}
	for _, f := range fields {
		if f.Regex == "" {
			continue
		}
		re, err := regexp.Compile(f.Regex)
		if err != nil {
			return nil, fmt.Errorf("field %s: invalid regex: %w", f.Column, err)
		}
		e.regexes[f.Regex] = re
	}
	return e, nil
}

// ExtractPage returns the records of every card on doc, in page order.
// Pages rejected by the site validator yield no records.
func (e *Extractor) ExtractPage(doc *goquery.Document) ([]models.Record, error) {
	if e.site.ValidatePage != nil {
		if err := e.site.ValidatePage(doc); err != nil {
			return nil, err
		}
	}

	var records []models.Record
	doc.Find(e.site.Selectors.Listing).Each(func(_ int, s *goquery.Selection) {
		if r := e.ExtractListing(s); r != nil {
			records = append(records, r)
		}
	})
	return records, nil
}

// ExtractListing reads one card. It returns nil when the card must be skipped.
func (e *Extractor) ExtractListing(s *goquery.Selection) models.Record {
	if e.site.Selectors.ClassFilter != "" && s.HasClass(e.site.Selectors.ClassFilter) {
		return nil
	}

	r, ok := e.extractFields(s, e.site.Fields)
	if !ok {
		return nil
	}
	if e.site.Derive != nil {
		e.site.Derive(s, r)
	}
	if e.site.Accept != nil && !e.site.Accept(r) {
		return nil
	}
	return r
}

// ExtractDetail reads a detail page. It returns nil when a required field is missing.
func (e *Extractor) ExtractDetail(doc *goquery.Document, pageURL string) models.Record {
	if e.site.Detail == nil {
		return nil
	}
	r, ok := e.extractFields(doc.Selection, e.site.Detail.Fields)
	if !ok {
		return nil
	}
	if e.site.Detail.URLColumn != "" {
		r[e.site.Detail.URLColumn] = pageURL
	}
	return r
}

// ExtractLinks returns the resolved detail links of every card, in page order
func (e *Extractor) ExtractLinks(doc *goquery.Document) []string {
	if e.site.Detail == nil {
		return nil
	}

	var links []string
	doc.Find(e.site.Selectors.Listing).Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Find(e.site.Detail.LinkSelector).First().Attr("href")
		if !exists {
			return
		}
		if link := helpers.ResolveURL(e.site.BaseURL, strings.TrimSpace(href)); link != "" {
			links = append(links, link)
		}
	})
	return links
}

// NextPage returns the resolved next-page URL, or "" on the last page
func (e *Extractor) NextPage(doc *goquery.Document) string {
	if e.site.Selectors.NextPage == "" {
		return ""
	}
	href, exists := doc.Find(e.site.Selectors.NextPage).First().Attr("href")
	if !exists {
		return ""
	}
	return helpers.ResolveURL(e.site.BaseURL, strings.TrimSpace(href))
}

func (e *Extractor) extractFields(s *goquery.Selection, fields []FieldSpec) (models.Record, bool) {
	r := make(models.Record, len(fields))
	for _, f := range fields {
		value := e.extractField(s, f)
		if value == "" {
			if f.Required {
				return nil, false
			}
			value = e.fallback(f)
		}
		r[f.Column] = value
	}
	return r, true
}

func (e *Extractor) fallback(f FieldSpec) string {
	if f.Default != "" {
		return f.Default
	}
	if e.site.Placeholder != "" {
		return e.site.Placeholder
	}
	return DefaultPlaceholder
}

// extractField reads a single value using the handlers first, then the selector
func (e *Extractor) extractField(s *goquery.Selection, f FieldSpec) string {
	value := applyHandlers(s, f.Handlers)
	if value == "" && (f.Selector != "" || len(f.Handlers) == 0) {
		value = e.readSelector(s, f)
	}

	if value != "" && f.Regex != "" {
		value = matchRegex(e.regexes[f.Regex], value)
	}
	if value != "" && f.Transform != nil {
		value = f.Transform(value)
	}
	value = strings.TrimSpace(value)
	if value != "" && f.ResolveURL {
		value = helpers.ResolveURL(e.site.BaseURL, value)
	}
	return value
}

func (e *Extractor) readSelector(s *goquery.Selection, f FieldSpec) string {
	sel := s
	if f.Selector != "" {
		sel = s.Find(f.Selector).First()
	}
	if sel.Length() == 0 {
		return ""
	}

	if f.Attr != "" {
		value, _ := sel.Attr(f.Attr)
		return strings.TrimSpace(value)
	}

	if len(f.Remove) > 0 {
		sel = cleanSelection(sel, f.Remove)
	}
	return strings.TrimSpace(sel.Text())
}

// applyHandlers applies a series of handlers to a selection
func applyHandlers(s *goquery.Selection, handlers []ElementHandler) string {
	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		if result := strings.TrimSpace(handler(s)); result != "" {
			return result
		}
	}
	return ""
}

// cleanSelection removes the given elements from a clone of sel
func cleanSelection(sel *goquery.Selection, selectors []string) *goquery.Selection {
	clone := sel.Clone()
	for _, selector := range selectors {
		clone.Find(selector).Remove()
	}
	return clone
}

func matchRegex(re *regexp.Regexp, value string) string {
	if re == nil {
		return value
	}
	m := re.FindStringSubmatch(value)
	switch {
	case m == nil:
		return ""
	case len(m) > 1:
		return m[1]
	default:
		return m[0]
	}
}
