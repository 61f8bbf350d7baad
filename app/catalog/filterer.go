package catalog

import "strings"

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run keeps the categories whose name or slug contains query, ignoring case.
// Order is preserved. An empty query returns the input unchanged.
func (f *Filterer) Run(categories []Category, query string) []Category {
	query = strings.TrimSpace(query)
	if query == "" {
		return categories
	}

	filtered := make([]Category, 0, len(categories))
	for _, c := range categories {
		if f.matches(c.Name, query) || f.matches(c.Slug, query) || f.matches(c.Slug, Slugify(query)) {
			filtered = append(filtered, c)
		}
	}

	return filtered
}

func (f *Filterer) matches(value, pattern string) bool {
	if pattern == "" {
		return false
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}
