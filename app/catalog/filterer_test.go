package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFiltererRun(t *testing.T) {
	categories := DefaultSettings().FallbackCategories()
	filterer := NewFilterer()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty query keeps everything", "", []string{"supplements", "vitamins", "hair-skin-care", "personal-care", "fitness", "baby-care"}},
		{"name match ignores case", "VITA", []string{"vitamins"}},
		{"slug match", "skin-care", []string{"hair-skin-care"}},
		{"query is slugified", "Skin Care", []string{"hair-skin-care"}},
		{"shared substring keeps order", "care", []string{"hair-skin-care", "personal-care", "baby-care"}},
		{"no match", "garden", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterer.Run(categories, tt.query)
			slugs := make([]string, 0, len(got))
			for _, c := range got {
				slugs = append(slugs, c.Slug)
			}
			assert.Equal(t, tt.want, slugs)
		})
	}
}
