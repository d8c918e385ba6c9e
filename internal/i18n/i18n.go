// Package i18n loads the embedded message catalogs and resolves
// localized strings by key.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// BaseLocale is used when a requested locale or key is missing.
const BaseLocale = "en-US"

//go:embed locales/*/*.yaml
var localeFS embed.FS

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

// Bundle holds every locale's messages registered in an x/text catalog.
type Bundle struct {
	builder  *catalog.Builder
	messages map[string]map[string]string
	tags     []language.Tag
	names    []string
	matcher  language.Matcher
}

// Load reads the catalogs embedded in the binary.
func Load() (*Bundle, error) {
	return LoadFromFS(localeFS)
}

// LoadFromFS reads locales/<locale>/<namespace>.yaml files from fsys.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	b := &Bundle{
		builder:  catalog.NewBuilder(catalog.Fallback(language.MustParse(BaseLocale))),
		messages: make(map[string]map[string]string),
	}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := b.add(p, file); err != nil {
			return nil, err
		}
	}
	if _, ok := b.messages[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}

	// Base locale first so the matcher falls back to it.
	b.names = append(b.names, BaseLocale)
	for locale := range b.messages {
		if locale != BaseLocale {
			b.names = append(b.names, locale)
		}
	}
	sort.Strings(b.names[1:])
	for _, name := range b.names {
		b.tags = append(b.tags, language.MustParse(name))
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

func (b *Bundle) add(p string, file catalogFile) error {
	locale := strings.TrimSpace(file.Locale)
	if locale != path.Base(path.Dir(p)) {
		return fmt.Errorf("catalog %s: locale %q must match path", p, locale)
	}
	namespace := strings.TrimSpace(file.Namespace)
	if namespace != strings.TrimSuffix(path.Base(p), path.Ext(p)) {
		return fmt.Errorf("catalog %s: namespace %q must match filename", p, namespace)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("catalog %s: parse locale: %w", p, err)
	}

	msgs, ok := b.messages[locale]
	if !ok {
		msgs = make(map[string]string)
		b.messages[locale] = msgs
	}
	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", p)
		}
		if _, dup := msgs[key]; dup {
			return fmt.Errorf("catalog %s: duplicate key %q in locale %q", p, key, locale)
		}
		msgs[key] = value
		if err := b.builder.SetString(tag, key, value); err != nil {
			return fmt.Errorf("catalog %s: register %q: %w", p, key, err)
		}
	}
	return nil
}

// Locales returns the loaded locales, base locale first.
func (b *Bundle) Locales() []string {
	return append([]string(nil), b.names...)
}

// Resolve maps a requested locale, such as an Accept-Language value, to
// the closest loaded locale.
func (b *Bundle) Resolve(requested string) string {
	desired, _, err := language.ParseAcceptLanguage(requested)
	if err != nil || len(desired) == 0 {
		return BaseLocale
	}
	_, idx, conf := b.matcher.Match(desired...)
	if conf == language.No {
		return BaseLocale
	}
	return b.names[idx]
}

// Printer returns a translator for the closest loaded locale.
func (b *Bundle) Printer(locale string) *Printer {
	resolved := b.Resolve(locale)
	return &Printer{
		bundle: b,
		locale: resolved,
		p:      message.NewPrinter(language.MustParse(resolved), message.Catalog(b.builder)),
		base:   message.NewPrinter(language.MustParse(BaseLocale), message.Catalog(b.builder)),
	}
}

// Printer resolves message keys for one locale.
type Printer struct {
	bundle *Bundle
	locale string
	p      *message.Printer
	base   *message.Printer
}

// Locale returns the locale the printer resolved to.
func (p *Printer) Locale() string {
	if p == nil {
		return BaseLocale
	}
	return p.locale
}

// String returns the message for key formatted with args. Keys missing
// from the locale come from the base locale; unknown keys come back as
// the key itself.
func (p *Printer) String(key string, args ...any) string {
	if p == nil {
		return key
	}
	if _, ok := p.bundle.messages[p.locale][key]; ok {
		return p.p.Sprintf(key, args...)
	}
	if _, ok := p.bundle.messages[BaseLocale][key]; ok {
		return p.base.Sprintf(key, args...)
	}
	return key
}
