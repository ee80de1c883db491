// Package i18n provides internationalization support for error messages.
package i18n

import (
	"bytes"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
)

// BaseLocale is the locale every lookup falls back to.
const BaseLocale = "en-US"

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale   string
	tag      language.Tag
	messages map[Code]string
}

var (
	catalogsMu sync.RWMutex
	// catalogs holds registered catalogs by canonical locale.
	catalogs = map[string]*Catalog{}
)

func init() {
	RegisterCatalog(BaseLocale, NewCatalog(BaseLocale, enUS))
}

// GetCatalog returns the catalog that best matches the given locale.
// Falls back to en-US when no registered catalog matches.
func GetCatalog(locale string) *Catalog {
	requested := strings.TrimSpace(locale)
	if requested == "" {
		requested = BaseLocale
	}
	if c, ok := lookupCatalog(requested); ok {
		return c
	}

	tags, byTag := supportedTags()
	desired, _, err := language.ParseAcceptLanguage(requested)
	if err == nil && len(desired) > 0 {
		_, index, confidence := language.NewMatcher(tags).Match(desired...)
		if confidence != language.No {
			return byTag[index]
		}
	}
	base, _ := lookupCatalog(BaseLocale)
	return base
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template with the given metadata.
// Falls back to the error code itself if no template is found.
// Templates are always executed even with nil/empty metadata so variables
// without metadata render consistently.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	tmpl, ok := c.messages[code]
	if !ok {
		return code
	}

	if metadata == nil {
		metadata = map[string]string{}
	}
	t, err := template.New("msg").Parse(tmpl)
	if err != nil {
		return tmpl
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}

// RegisterCatalog registers a catalog for the given locale. Callers should
// register during init or single-threaded test setup.
func RegisterCatalog(locale string, cat *Catalog) {
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	catalogs[locale] = cat
}

// NewCatalog creates a new catalog with the given locale and messages.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	cloned := make(map[Code]string, len(messages))
	for key, value := range messages {
		cloned[key] = value
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Make(locale)
	}
	return &Catalog{
		locale:   locale,
		tag:      tag,
		messages: cloned,
	}
}

func lookupCatalog(locale string) (*Catalog, bool) {
	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	cat, ok := catalogs[locale]
	return cat, ok
}

// supportedTags lists registered catalogs with the base locale first so the
// matcher falls back to it.
func supportedTags() ([]language.Tag, []*Catalog) {
	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	base := catalogs[BaseLocale]
	tags := []language.Tag{base.tag}
	byTag := []*Catalog{base}
	for locale, cat := range catalogs {
		if locale == BaseLocale {
			continue
		}
		tags = append(tags, cat.tag)
		byTag = append(byTag, cat)
	}
	return tags, byTag
}
