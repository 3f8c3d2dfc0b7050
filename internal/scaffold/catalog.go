// Package scaffold generates the boilerplate pushed into a new repository:
// Dockerfile, compose file, CI workflow, README and the language's build
// manifest. Supported frameworks come from an embedded YAML catalog.
package scaffold

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/shaun/scaffold/server/internal/fault"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Framework is the build configuration of one framework.
type Framework struct {
	Name            string   `yaml:"-" json:"name"`
	Build           string   `yaml:"build" json:"buildCommand"`
	Start           string   `yaml:"start" json:"startCommand"`
	Output          string   `yaml:"output" json:"-"`
	Gradle          bool     `yaml:"gradle" json:"-"`
	Port            int      `yaml:"port" json:"port"`
	Dependencies    []string `yaml:"dependencies" json:"dependencies"`
	DevDependencies []string `yaml:"devDependencies" json:"devDependencies"`
}

// Language groups frameworks sharing a base image.
type Language struct {
	Name       string                `yaml:"-" json:"name"`
	Image      string                `yaml:"image" json:"image"`
	Frameworks map[string]*Framework `yaml:"frameworks" json:"-"`
}

// LanguageInfo is the listing form of a Language.
type LanguageInfo struct {
	Name       string      `json:"name"`
	Frameworks []Framework `json:"frameworks"`
}

// Catalog is an immutable set of languages and frameworks.
type Catalog struct {
	languages map[string]*Language
}

// Parse builds a Catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	const errCtx = "parsing scaffold catalog"

	var doc struct {
		Languages map[string]*Language `yaml:"languages"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}
	if len(doc.Languages) == 0 {
		return nil, fmt.Errorf("%s: no languages defined", errCtx)
	}
	for ln, lang := range doc.Languages {
		if lang == nil || lang.Image == "" {
			return nil, fmt.Errorf("%s: language %q has no image", errCtx, ln)
		}
		if len(lang.Frameworks) == 0 {
			return nil, fmt.Errorf("%s: language %q has no frameworks", errCtx, ln)
		}
		lang.Name = ln
		for fn, fw := range lang.Frameworks {
			if fw == nil || fw.Build == "" || fw.Start == "" || fw.Port <= 0 {
				return nil, fmt.Errorf("%s: framework %s/%s is incomplete", errCtx, ln, fn)
			}
			fw.Name = fn
		}
	}
	return &Catalog{languages: doc.Languages}, nil
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(catalogYAML)
}

// Lookup finds a language/framework pair. Unknown pairs are a validation
// fault.
func (c *Catalog) Lookup(language, framework string) (*Language, *Framework, error) {
	lang, ok := c.languages[language]
	if !ok {
		return nil, nil, fault.Invalid("Invalid programming language",
			fault.FieldError{Field: "language", Message: fmt.Sprintf("unsupported language %q", language)})
	}
	fw, ok := lang.Frameworks[framework]
	if !ok {
		return nil, nil, fault.Invalid("Invalid framework",
			fault.FieldError{Field: "framework", Message: fmt.Sprintf("no configuration found for %s/%s", language, framework)})
	}
	return lang, fw, nil
}

// HasLanguage reports whether language is in the catalog.
func (c *Catalog) HasLanguage(language string) bool {
	_, ok := c.languages[language]
	return ok
}

// Languages lists the catalog sorted by language and framework name.
func (c *Catalog) Languages() []LanguageInfo {
	out := make([]LanguageInfo, 0, len(c.languages))
	for _, lang := range c.languages {
		info := LanguageInfo{Name: lang.Name}
		for _, fw := range lang.Frameworks {
			info.Frameworks = append(info.Frameworks, *fw)
		}
		sort.Slice(info.Frameworks, func(i, j int) bool {
			return info.Frameworks[i].Name < info.Frameworks[j].Name
		})
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
