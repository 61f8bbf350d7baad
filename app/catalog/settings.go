package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL = "https://store.example.com"
	DefaultIcon    = "grid"
)

var ErrInvalidSettings = errors.New("invalid catalog settings")

// Settings holds the static tables the normalizer and the retrieval policy
// rely on. They can be overridden from a YAML file.
type Settings struct {
	BaseURL       string             `yaml:"base_url"`
	DefaultIcon   string             `yaml:"default_icon"`
	Icons         map[string]string  `yaml:"icons"`
	DefaultImages []string           `yaml:"default_images"`
	Fallback      []FallbackCategory `yaml:"fallback"`
}

type FallbackCategory struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
	Icon string `yaml:"icon"`
}

func defaultIcons() map[string]string {
	return map[string]string{
		"supplements":    "medkit",
		"vitamins":       "nutrition",
		"hair-skin-care": "sparkles",
		"personal-care":  "body",
		"fitness":        "barbell",
		"baby-care":      "happy",
	}
}

func defaultImages() []string {
	return []string{
		"https://images.unsplash.com/photo-1584308666744-24d5c474f2ae?w=400&q=80",
		"https://images.unsplash.com/photo-1556228578-8c89e6adf883?w=400&q=80",
		"https://images.unsplash.com/photo-1571019613454-1cb2f99b2d8b?w=400&q=80",
		"https://images.unsplash.com/photo-1607619056574-7b8d3ee536b2?w=400&q=80",
		"https://images.unsplash.com/photo-1515377905703-c4788e51af15?w=400&q=80",
	}
}

func defaultFallback() []FallbackCategory {
	return []FallbackCategory{
		{Name: "Supplements", Slug: "supplements", Icon: "medkit"},
		{Name: "Vitamins", Slug: "vitamins", Icon: "nutrition"},
		{Name: "Hair & Skin Care", Slug: "hair-skin-care", Icon: "sparkles"},
		{Name: "Personal Care", Slug: "personal-care", Icon: "body"},
		{Name: "Fitness", Slug: "fitness", Icon: "barbell"},
		{Name: "Baby Care", Slug: "baby-care", Icon: "happy"},
	}
}

func DefaultSettings() *Settings {
	return &Settings{
		BaseURL:       DefaultBaseURL,
		DefaultIcon:   DefaultIcon,
		Icons:         defaultIcons(),
		DefaultImages: defaultImages(),
		Fallback:      defaultFallback(),
	}
}

// LoadSettings reads catalog settings from path. A missing file yields the
// built-in defaults. baseURL is used when the file does not set base_url.
func LoadSettings(path, baseURL string) (*Settings, error) {
	var settings Settings

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("Catalog settings file not found, using defaults", "path", path)
	case err != nil:
		return nil, fmt.Errorf("failed to read file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if settings.BaseURL == "" {
		settings.BaseURL = baseURL
	}
	settings.setDefaults()

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings %s: %w", path, err)
	}

	slog.Debug("Catalog settings loaded",
		"base_url", settings.BaseURL,
		"icons", len(settings.Icons),
		"default_images", len(settings.DefaultImages),
		"fallback", len(settings.Fallback))

	return &settings, nil
}

func (s *Settings) setDefaults() {
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")
	if s.DefaultIcon == "" {
		s.DefaultIcon = DefaultIcon
	}
	if len(s.Icons) == 0 {
		s.Icons = defaultIcons()
	}
	if len(s.DefaultImages) == 0 {
		s.DefaultImages = defaultImages()
	}
	if len(s.Fallback) == 0 {
		s.Fallback = defaultFallback()
	}
	for i := range s.Fallback {
		if s.Fallback[i].Slug == "" {
			s.Fallback[i].Slug = Slugify(s.Fallback[i].Name)
		}
		if s.Fallback[i].Icon == "" {
			s.Fallback[i].Icon = s.Icon(s.Fallback[i].Slug)
		}
	}
}

func (s *Settings) Validate() error {
	if !strings.HasPrefix(s.BaseURL, "http") {
		return fmt.Errorf("%w: base_url must be an absolute http(s) URL, got %q", ErrInvalidSettings, s.BaseURL)
	}
	if s.DefaultIcon == "" {
		return fmt.Errorf("%w: default_icon is required", ErrInvalidSettings)
	}
	for slug, icon := range s.Icons {
		if slug == "" || icon == "" {
			return fmt.Errorf("%w: icon entries need both a slug and an icon", ErrInvalidSettings)
		}
	}
	if len(s.DefaultImages) == 0 {
		return fmt.Errorf("%w: at least one default image is required", ErrInvalidSettings)
	}
	for i, image := range s.DefaultImages {
		if !strings.HasPrefix(image, "http") {
			return fmt.Errorf("%w: default image at index %d is not an absolute URL: %q", ErrInvalidSettings, i, image)
		}
	}
	if len(s.Fallback) == 0 {
		return fmt.Errorf("%w: at least one fallback category is required", ErrInvalidSettings)
	}
	for i, f := range s.Fallback {
		if f.Name == "" || f.Slug == "" || f.Icon == "" {
			return fmt.Errorf("%w: fallback category at index %d needs a name, slug and icon", ErrInvalidSettings, i)
		}
	}
	return nil
}

// Icon returns the symbolic icon tag registered for slug, or the default tag.
func (s *Settings) Icon(slug string) string {
	if icon, ok := s.Icons[slug]; ok && icon != "" {
		return icon
	}
	if s.DefaultIcon == "" {
		return DefaultIcon
	}
	return s.DefaultIcon
}

// FallbackCategories returns a fresh copy of the fallback sequence. Ids and
// images are fixed per position so the sequence is identical on every call.
func (s *Settings) FallbackCategories() []Category {
	categories := make([]Category, len(s.Fallback))
	for i, f := range s.Fallback {
		categories[i] = Category{
			ID:    fmt.Sprintf("fallback-%d", i+1),
			Name:  f.Name,
			Icon:  f.Icon,
			Slug:  f.Slug,
			Image: FixedPicker{Index: i}.Pick(s.DefaultImages),
		}
	}
	return categories
}
