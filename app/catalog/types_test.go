package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexStringDecoding(t *testing.T) {
	tests := []struct {
		input string
		want  FlexString
	}{
		{`"abc"`, FlexString{Value: "abc", Set: true}},
		{`""`, FlexString{}},
		{`null`, FlexString{}},
		{`7`, FlexString{Value: "7", Set: true}},
		{`7.0`, FlexString{Value: "7", Set: true}},
		{`7.5`, FlexString{Value: "7.5", Set: true}},
		{`true`, FlexString{Value: "true", Set: true}},
		{`{"a": 1}`, FlexString{}},
		{`[1, 2]`, FlexString{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var wrapper struct {
				V FlexString `json:"v"`
			}
			require.NoError(t, json.Unmarshal([]byte(`{"v": `+tt.input+`}`), &wrapper))
			assert.Equal(t, tt.want, wrapper.V)
		})
	}
}

func TestImageDecoding(t *testing.T) {
	tests := []struct {
		input string
		want  Image
	}{
		{`"http://a/x.png"`, PlainImage("http://a/x.png")},
		{`"/x.png"`, PlainImage("/x.png")},
		{`""`, Image{}},
		{`null`, Image{}},
		{`{"id": 5, "src": "http://a/x.png", "alt": ""}`, SrcImage("http://a/x.png")},
		{`{"url": "http://a/u.png"}`, URLImage("http://a/u.png")},
		{`{"src": "", "url": "http://a/u.png"}`, URLImage("http://a/u.png")},
		{`{"src": 12}`, Image{}},
		{`{}`, Image{}},
		{`[]`, Image{}},
		{`false`, Image{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var raw RawCategory
			require.NoError(t, json.Unmarshal([]byte(`{"image": `+tt.input+`}`), &raw))
			assert.Equal(t, tt.want, raw.Image)
		})
	}
}

func TestRawCategoryDecodesWooCommerceShape(t *testing.T) {
	data := `[
	  {"id": 15, "name": "Supplements", "slug": "supplements", "parent": 0,
	   "image": {"id": 31, "src": "https://shop.test/wp-content/uploads/sup.jpg", "name": "sup", "alt": ""},
	   "count": 42},
	  {"term_id": "16", "name": "Vitamins", "image": null}
	]`

	var raws []RawCategory
	require.NoError(t, json.Unmarshal([]byte(data), &raws))
	require.Len(t, raws, 2)

	assert.Equal(t, "15", raws[0].ID.Value)
	assert.Equal(t, ImageSrcObject, raws[0].Image.Kind)
	assert.Equal(t, "16", raws[1].TermID.Value)
	assert.False(t, raws[1].ID.Set)
	assert.Equal(t, ImageNone, raws[1].Image.Kind)
}

func TestImageMarshalRoundTrip(t *testing.T) {
	for _, image := range []Image{PlainImage("/a.png"), SrcImage("http://s"), URLImage("http://u"), {}} {
		data, err := json.Marshal(image)
		require.NoError(t, err)

		var decoded Image
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, image, decoded, image.Kind.String())
	}
}
