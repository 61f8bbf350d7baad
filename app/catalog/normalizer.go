package catalog

import (
	"fmt"
	"strings"
)

// Normalizer maps raw upstream category records onto Category. It never
// fails: every missing or oddly shaped field falls back to a usable value.
type Normalizer struct {
	settings *Settings
	seq      Sequence
	images   ImagePicker
}

func NewNormalizer(settings *Settings, seq Sequence, images ImagePicker) *Normalizer {
	if settings == nil {
		settings = DefaultSettings()
	}
	if seq == nil {
		seq = NewCounter(DefaultSequenceStart)
	}
	if images == nil {
		images = RandomPicker{}
	}

	return &Normalizer{
		settings: settings,
		seq:      seq,
		images:   images,
	}
}

// RunAll normalizes a batch in input order.
func (n *Normalizer) RunAll(raws []RawCategory) []Category {
	categories := make([]Category, 0, len(raws))
	for _, raw := range raws {
		categories = append(categories, n.Run(raw))
	}
	return categories
}

func (n *Normalizer) Run(raw RawCategory) Category {
	id := n.resolveID(raw)
	name := n.resolveName(raw, id)
	slug := n.resolveSlug(raw, name)

	return Category{
		ID:    id,
		Name:  name,
		Icon:  n.settings.Icon(slug),
		Slug:  slug,
		Image: n.resolveImage(raw),
	}
}

func (n *Normalizer) resolveID(raw RawCategory) string {
	switch {
	case raw.TermID.Set:
		return raw.TermID.Value
	case raw.ID.Set:
		return raw.ID.Value
	default:
		return fmt.Sprintf("temp-%d", n.seq.Next())
	}
}

func (n *Normalizer) resolveName(raw RawCategory, id string) string {
	if raw.Name.Set {
		return raw.Name.Value
	}
	return "Category " + id
}

func (n *Normalizer) resolveSlug(raw RawCategory, name string) string {
	if raw.Slug.Set {
		return raw.Slug.Value
	}
	if slug := Slugify(name); slug != "" {
		return slug
	}
	return fmt.Sprintf("category-%d", n.seq.Next())
}

// resolveImage walks the known image shapes in priority order; the first
// match wins.
func (n *Normalizer) resolveImage(raw RawCategory) string {
	switch raw.Image.Kind {
	case ImageSrcObject, ImageURLObject:
		return raw.Image.Value
	case ImagePlainURL:
		switch {
		case strings.HasPrefix(raw.Image.Value, "http"):
			return raw.Image.Value
		case strings.HasPrefix(raw.Image.Value, "/"):
			return n.settings.BaseURL + raw.Image.Value
		}
	}

	if raw.ImageURL.Set && strings.HasPrefix(raw.ImageURL.Value, "http") {
		return raw.ImageURL.Value
	}
	if raw.Thumbnail.Set && strings.HasPrefix(raw.Thumbnail.Value, "http") {
		return raw.Thumbnail.Value
	}

	return n.images.Pick(n.settings.DefaultImages)
}
