// Package locale resolves the report language and formats labels, numbers
// and dates for it. Catalogs are embedded YAML files registered with
// golang.org/x/text/message at init.
package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Default is the locale used when none is configured.
const Default = "es-CL"

//go:embed locales/*.yaml
var catalogFS embed.FS

var supported = []language.Tag{
	language.MustParse("es-CL"),
	language.English,
}

var matcher = language.NewMatcher(supported)

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

var months = map[string][]string{}

func init() {
	if err := register(catalogFS); err != nil {
		panic(err)
	}
}

func register(fsys fs.FS) error {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return fmt.Errorf("glob locale catalogs: %w", err)
	}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read catalog %s: %w", p, err)
		}
		var cf catalogFile
		if err := yaml.Unmarshal(data, &cf); err != nil {
			return fmt.Errorf("parse catalog %s: %w", p, err)
		}
		tag, err := language.Parse(cf.Locale)
		if err != nil {
			return fmt.Errorf("catalog %s: %w", p, err)
		}
		for key, msg := range cf.Messages {
			if err := message.SetString(tag, key, msg); err != nil {
				return fmt.Errorf("catalog %s key %s: %w", p, key, err)
			}
		}
		if m := strings.Split(cf.Messages["months"], ","); len(m) == 12 {
			months[tag.String()] = m
		}
	}
	return nil
}

// Locale formats report text for one resolved language.
type Locale struct {
	Tag language.Tag
	p   *message.Printer
}

// Resolve matches name against the supported locales, falling back to
// Default for empty or unmatched input.
func Resolve(name string) Locale {
	if strings.TrimSpace(name) == "" {
		name = Default
	}
	tag := supported[0]
	if parsed, err := language.Parse(name); err == nil {
		_, idx, conf := matcher.Match(parsed)
		if conf != language.No {
			tag = supported[idx]
		}
	}
	return Locale{Tag: tag, p: message.NewPrinter(tag)}
}

// String returns the BCP 47 tag.
func (l Locale) String() string {
	return l.Tag.String()
}

// T looks up key in the catalog and formats it with args.
func (l Locale) T(key string, args ...any) string {
	return l.printer().Sprintf(key, args...)
}

// Number formats n with the locale's digit grouping.
func (l Locale) Number(n int) string {
	return l.printer().Sprintf("%d", n)
}

// ShortDate renders t as day/month-abbreviation, e.g. "2/jun".
func (l Locale) ShortDate(t time.Time) string {
	names, ok := months[l.Tag.String()]
	if !ok {
		names = months[language.English.String()]
	}
	if len(names) != 12 {
		return t.Format("2/Jan")
	}
	return fmt.Sprintf("%d/%s", t.Day(), names[t.Month()-1])
}

func (l Locale) printer() *message.Printer {
	if l.p == nil {
		return message.NewPrinter(l.Tag)
	}
	return l.p
}
