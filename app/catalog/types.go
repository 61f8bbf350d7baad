package catalog

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Canonical types

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Slug  string `json:"slug"`
	Image string `json:"image"`
}

type Snapshot struct {
	Categories  []Category
	ContentHash string
	// SourceHash identifies the upstream payload; unchanged payloads are not
	// stored again.
	SourceHash  string
	FetchedAt   time.Time
}

// Upstream types

// RawCategory is one category record as the commerce backend returns it.
// Every field is optional and several of them have had more than one shape
// over the lifetime of the API.
type RawCategory struct {
	TermID    FlexString `json:"term_id"`
	ID        FlexString `json:"id"`
	Name      FlexString `json:"name"`
	Slug      FlexString `json:"slug"`
	Image     Image      `json:"image"`
	ImageURL  FlexString `json:"image_url"`
	Thumbnail FlexString `json:"thumbnail"`
}

// FlexString accepts a JSON string, number or boolean. Null, empty strings,
// objects and arrays leave it unset.
type FlexString struct {
	Value string
	Set   bool
}

func Flex(s string) FlexString {
	return FlexString{Value: s, Set: s != ""}
}

func (f *FlexString) UnmarshalJSON(data []byte) error {
	*f = FlexString{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Flex(s)
	case '{', '[':
		// not representable as an identifier or label
	case 't', 'f':
		*f = Flex(string(data))
	default:
		*f = Flex(formatNumber(string(data)))
	}

	return nil
}

func (f FlexString) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// formatNumber renders integral numbers without a fraction so that 7 and 7.0
// resolve to the same id.
func formatNumber(raw string) string {
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

type ImageKind int

const (
	ImageNone ImageKind = iota
	ImagePlainURL
	ImageSrcObject
	ImageURLObject
)

func (k ImageKind) String() string {
	switch k {
	case ImagePlainURL:
		return "plain_url"
	case ImageSrcObject:
		return "src_object"
	case ImageURLObject:
		return "url_object"
	default:
		return "none"
	}
}

// Image is the set of shapes the upstream "image" field is known to take:
// a bare URL string, {"src": ...} or {"url": ...}. Anything else decodes to
// ImageNone.
type Image struct {
	Kind  ImageKind
	Value string
}

func PlainImage(url string) Image { return Image{Kind: ImagePlainURL, Value: url} }
func SrcImage(src string) Image   { return Image{Kind: ImageSrcObject, Value: src} }
func URLImage(url string) Image   { return Image{Kind: ImageURLObject, Value: url} }

func (i *Image) UnmarshalJSON(data []byte) error {
	*i = Image{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != "" {
			*i = PlainImage(s)
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil
		}
		if src := stringField(obj, "src"); src != "" {
			*i = SrcImage(src)
		} else if url := stringField(obj, "url"); url != "" {
			*i = URLImage(url)
		}
	}

	return nil
}

func (i Image) MarshalJSON() ([]byte, error) {
	switch i.Kind {
	case ImagePlainURL:
		return json.Marshal(i.Value)
	case ImageSrcObject:
		return json.Marshal(map[string]string{"src": i.Value})
	case ImageURLObject:
		return json.Marshal(map[string]string{"url": i.Value})
	default:
		return []byte("null"), nil
	}
}

func stringField(obj map[string]json.RawMessage, key string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
