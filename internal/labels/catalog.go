// Package labels owns the reserved category labels (Failure, Uncategorizable
// and the image placeholder) and the alias sets used to recognize them.
package labels

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed labels.yaml
var defaultCatalog []byte

// Locale holds the display labels for one locale.
type Locale struct {
	Failure         string `yaml:"failure"`
	Uncategorizable string `yaml:"uncategorizable"`
	Image           string `yaml:"image"`
}

type catalogFile struct {
	DefaultLocale      string            `yaml:"default_locale"`
	FailureKey         string            `yaml:"failure_key"`
	UncategorizableKey string            `yaml:"uncategorizable_key"`
	Locales            map[string]Locale `yaml:"locales"`
	Legacy             struct {
		Failure         []string `yaml:"failure"`
		Uncategorizable []string `yaml:"uncategorizable"`
	} `yaml:"legacy"`
}

// Catalog resolves reserved labels for the active locale. Alias checks cover
// the canonical key, the display label of every known locale and the legacy
// spellings, so data written under another locale still compares equal.
type Catalog struct {
	current              Locale
	locale               string
	failureAliases       []string
	uncategorizableAlias []string
}

// Load parses the embedded catalog and selects locale. An empty locale picks
// the catalog default; an unknown one is an error.
func Load(locale string) (*Catalog, error) {
	return Parse(defaultCatalog, locale)
}

// MustLoad is Load for callers with a known-good locale, such as tests.
func MustLoad(locale string) *Catalog {
	c, err := Load(locale)
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from YAML data.
func Parse(data []byte, locale string) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse label catalog: %w", err)
	}
	if len(f.Locales) == 0 {
		return nil, fmt.Errorf("label catalog has no locales")
	}

	if locale == "" {
		locale = f.DefaultLocale
	}
	locale = strings.ToLower(strings.TrimSpace(locale))
	current, ok := f.Locales[locale]
	if !ok {
		return nil, fmt.Errorf("unknown label locale %q", locale)
	}
	if current.Failure == "" {
		return nil, fmt.Errorf("locale %q has no failure label", locale)
	}

	c := &Catalog{current: current, locale: locale}

	// Locale iteration order is fixed so alias lists are stable.
	names := make([]string, 0, len(f.Locales))
	for name := range f.Locales {
		names = append(names, name)
	}
	sort.Strings(names)

	c.failureAliases = appendAlias(c.failureAliases, f.FailureKey, current.Failure)
	c.uncategorizableAlias = appendAlias(c.uncategorizableAlias, f.UncategorizableKey, current.Uncategorizable)
	for _, name := range names {
		c.failureAliases = appendAlias(c.failureAliases, f.Locales[name].Failure)
		c.uncategorizableAlias = appendAlias(c.uncategorizableAlias, f.Locales[name].Uncategorizable)
	}
	c.failureAliases = appendAlias(c.failureAliases, f.Legacy.Failure...)
	c.uncategorizableAlias = appendAlias(c.uncategorizableAlias, f.Legacy.Uncategorizable...)

	return c, nil
}

func appendAlias(list []string, values ...string) []string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || containsFold(list, v) {
			continue
		}
		list = append(list, v)
	}
	return list
}

func containsFold(list []string, v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

// Locale returns the active locale name.
func (c *Catalog) Locale() string { return c.locale }

// Failure returns the display label stored on memos whose classification failed.
func (c *Catalog) Failure() string { return c.current.Failure }

// Uncategorizable returns the display label for content the model could not place.
func (c *Catalog) Uncategorizable() string { return c.current.Uncategorizable }

// ImagePlaceholder is the category given to images whose description produced no label.
func (c *Catalog) ImagePlaceholder() string { return c.current.Image }

// FailureAliases lists every spelling recognized as the Failure label.
func (c *Catalog) FailureAliases() []string {
	out := make([]string, len(c.failureAliases))
	copy(out, c.failureAliases)
	return out
}

// IsFailure reports whether label is any Failure alias.
func (c *Catalog) IsFailure(label string) bool {
	return containsFold(c.failureAliases, label)
}

// IsUncategorizable reports whether label is any Uncategorizable alias.
func (c *Catalog) IsUncategorizable(label string) bool {
	return containsFold(c.uncategorizableAlias, label)
}

// IsReserved reports whether label is a Failure or Uncategorizable alias.
func (c *Catalog) IsReserved(label string) bool {
	return c.IsFailure(label) || c.IsUncategorizable(label)
}
