package render

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// DefaultLocale is the one supported document locale.
const DefaultLocale = "es"

type sectionText struct {
	Title string `yaml:"title"`
	Intro string `yaml:"intro"`
}

// Locale carries the static legal boilerplate of one document language.
type Locale struct {
	Code          string                       `yaml:"code"`
	DocumentTitle string                       `yaml:"document_title"`
	WatermarkText string                       `yaml:"watermark_text"`
	TOCTitle      string                       `yaml:"toc_title"`
	Sections      map[string]sectionText       `yaml:"sections"`
	Labels        map[string]string            `yaml:"labels"`
	Enums         map[string]map[string]string `yaml:"enums"`
}

var (
	localeMu    sync.Mutex
	localeCache = map[string]*Locale{}
)

// LoadLocale parses the embedded boilerplate for a locale code. Unknown
// locales are an error; there is no silent fallback between languages.
func LoadLocale(code string) (*Locale, error) {
	if code == "" {
		code = DefaultLocale
	}
	localeMu.Lock()
	defer localeMu.Unlock()
	if loc, ok := localeCache[code]; ok {
		return loc, nil
	}
	raw, err := localeFS.ReadFile("locales/" + code + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unsupported locale %q: %w", code, err)
	}
	var loc Locale
	if err := yaml.Unmarshal(raw, &loc); err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", code, err)
	}
	localeCache[code] = &loc
	return &loc, nil
}

func (l *Locale) SectionTitle(id string) string {
	if s, ok := l.Sections[id]; ok && s.Title != "" {
		return s.Title
	}
	return id
}

func (l *Locale) SectionIntro(id string) string {
	return l.Sections[id].Intro
}

func (l *Locale) Label(key string) string {
	if v, ok := l.Labels[key]; ok {
		return v
	}
	return key
}

// Enum resolves a stored enum code to its display text, falling back to the
// code itself so new codes degrade visibly instead of disappearing.
func (l *Locale) Enum(group, code string) string {
	if g, ok := l.Enums[group]; ok {
		if v, ok := g[code]; ok {
			return v
		}
	}
	return code
}

func (l *Locale) EnumList(group string, codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, l.Enum(group, c))
	}
	return out
}
