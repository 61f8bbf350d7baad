package catalog

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(DefaultSettings(), NewCounter(DefaultSequenceStart), FixedPicker{Index: 2})
}

func decodeRaw(t *testing.T, data string) RawCategory {
	t.Helper()
	var raw RawCategory
	require.NoError(t, json.Unmarshal([]byte(data), &raw))
	return raw
}

func assertComplete(t *testing.T, c Category) {
	t.Helper()
	assert.NotEmpty(t, c.ID, "id")
	assert.NotEmpty(t, c.Name, "name")
	assert.NotEmpty(t, c.Icon, "icon")
	assert.NotEmpty(t, c.Slug, "slug")
	assert.NotEmpty(t, c.Image, "image")
}

func TestNormalizerTotality(t *testing.T) {
	inputs := []string{
		`{}`,
		`{"name": ""}`,
		`{"name": "!!!"}`,
		`{"id": null, "term_id": null}`,
		`{"image": null}`,
		`{"image": {}}`,
		`{"image": {"src": null, "url": 5}}`,
		`{"image": []}`,
		`{"image": 42}`,
		`{"image": "relative/no-slash.png"}`,
		`{"image_url": "ftp://nope"}`,
		`{"name": {"en": "Vitamins"}, "slug": ["x"]}`,
		`{"term_id": 12, "name": "Fitness", "slug": "fitness", "image": {"src": "https://cdn/x.png"}}`,
	}

	n := newTestNormalizer()
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			assertComplete(t, n.Run(decodeRaw(t, input)))
		})
	}
}

func TestNormalizerIDPrecedence(t *testing.T) {
	n := newTestNormalizer()

	assert.Equal(t, "7", n.Run(decodeRaw(t, `{"term_id": 7, "id": 99}`)).ID)
	assert.Equal(t, "99", n.Run(decodeRaw(t, `{"id": 99}`)).ID)
	assert.Equal(t, "abc", n.Run(decodeRaw(t, `{"term_id": "abc"}`)).ID)
	assert.Equal(t, "99", n.Run(decodeRaw(t, `{"term_id": null, "id": 99}`)).ID)
	assert.Equal(t, "0", n.Run(decodeRaw(t, `{"term_id": 0, "id": 99}`)).ID)

	synthetic := n.Run(decodeRaw(t, `{"name": "No Id"}`)).ID
	assert.Regexp(t, regexp.MustCompile(`^temp-\d+$`), synthetic)
}

func TestNormalizerSyntheticIDsAreUnique(t *testing.T) {
	n := newTestNormalizer()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := n.Run(RawCategory{}).ID
		require.False(t, seen[id], "duplicate synthetic id %s", id)
		seen[id] = true
	}
}

func TestNormalizerInjectedSequenceIsDeterministic(t *testing.T) {
	first := NewNormalizer(nil, NewCounter(1000), FixedPicker{}).Run(RawCategory{})
	second := NewNormalizer(nil, NewCounter(1000), FixedPicker{}).Run(RawCategory{})

	assert.Equal(t, first, second)
	assert.Equal(t, "temp-1000", first.ID)
	assert.Equal(t, "Category temp-1000", first.Name)
	assert.Equal(t, "category-temp-1000", first.Slug)
}

func TestNormalizerName(t *testing.T) {
	n := newTestNormalizer()

	assert.Equal(t, "Vitamins", n.Run(decodeRaw(t, `{"id": 3, "name": "Vitamins"}`)).Name)
	assert.Equal(t, "Category 3", n.Run(decodeRaw(t, `{"id": 3}`)).Name)
	assert.Equal(t, "Category 3", n.Run(decodeRaw(t, `{"id": 3, "name": ""}`)).Name)
}

func TestNormalizerSlug(t *testing.T) {
	n := newTestNormalizer()

	assert.Equal(t, "hair-skin-care", n.Run(decodeRaw(t, `{"name": "Hair & Skin Care!"}`)).Slug)
	assert.Equal(t, "given", n.Run(decodeRaw(t, `{"name": "Hair & Skin Care!", "slug": "given"}`)).Slug)
	assert.Equal(t, "category-3", n.Run(decodeRaw(t, `{"id": 3}`)).Slug)

	synthetic := n.Run(decodeRaw(t, `{"id": 3, "name": "***"}`)).Slug
	assert.Regexp(t, regexp.MustCompile(`^category-\d+$`), synthetic)
}

func TestNormalizerImagePrecedence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "src object wins over image_url",
			input:    `{"image": {"src": "http://a/x.png"}, "image_url": "http://b/y.png"}`,
			expected: "http://a/x.png",
		},
		{
			name:     "src wins over url in the same object",
			input:    `{"image": {"src": "http://a/src.png", "url": "http://a/url.png"}}`,
			expected: "http://a/src.png",
		},
		{
			name:     "url object",
			input:    `{"image": {"url": "https://a/u.png"}, "thumbnail": "http://t/t.png"}`,
			expected: "https://a/u.png",
		},
		{
			name:     "absolute string",
			input:    `{"image": "https://a/plain.png", "image_url": "http://b/y.png"}`,
			expected: "https://a/plain.png",
		},
		{
			name:     "root relative string",
			input:    `{"image": "/cat.png"}`,
			expected: DefaultBaseURL + "/cat.png",
		},
		{
			name:     "image_url when image is unusable",
			input:    `{"image": "cat.png", "image_url": "http://b/y.png", "thumbnail": "http://t/t.png"}`,
			expected: "http://b/y.png",
		},
		{
			name:     "thumbnail",
			input:    `{"image_url": "/relative.png", "thumbnail": "http://t/t.png"}`,
			expected: "http://t/t.png",
		},
		{
			name:     "default image",
			input:    `{"thumbnail": "t.png"}`,
			expected: defaultImages()[2],
		},
	}

	n := newTestNormalizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Run(decodeRaw(t, tt.input)).Image)
		})
	}
}

func TestNormalizerRandomDefaultImageIsOneOfDefaults(t *testing.T) {
	n := NewNormalizer(nil, nil, nil)
	defaults := defaultImages()

	for i := 0; i < 20; i++ {
		assert.Contains(t, defaults, n.Run(RawCategory{}).Image)
	}
}

func TestNormalizerIcon(t *testing.T) {
	n := newTestNormalizer()

	assert.Equal(t, "medkit", n.Run(decodeRaw(t, `{"slug": "supplements"}`)).Icon)
	assert.Equal(t, DefaultIcon, n.Run(decodeRaw(t, `{"slug": "unknown-xyz"}`)).Icon)
	assert.Equal(t, "sparkles", n.Run(decodeRaw(t, `{"name": "Hair & Skin Care"}`)).Icon)
}

func TestNormalizerRunAllPreservesOrder(t *testing.T) {
	raws := []RawCategory{
		decodeRaw(t, `{"id": 3, "name": "Three"}`),
		decodeRaw(t, `{"id": 1, "name": "One"}`),
		decodeRaw(t, `{"id": 2, "name": "Two"}`),
	}

	got := newTestNormalizer().RunAll(raws)

	expectedNormalizer := newTestNormalizer()
	expected := []Category{
		expectedNormalizer.Run(raws[0]),
		expectedNormalizer.Run(raws[1]),
		expectedNormalizer.Run(raws[2]),
	}
	assert.Equal(t, expected, got)

	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
	}
	assert.Equal(t, "Three,One,Two", strings.Join(names, ","))
}

func TestNormalizerUsesSettingsBaseURL(t *testing.T) {
	settings := DefaultSettings()
	settings.BaseURL = "https://shop.test"

	n := NewNormalizer(settings, nil, FixedPicker{})
	assert.Equal(t, "https://shop.test/img/a.png", n.Run(decodeRaw(t, `{"image": "/img/a.png"}`)).Image)
}
