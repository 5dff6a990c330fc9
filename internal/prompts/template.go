// Package prompts holds the versioned LLM prompt templates and renders them from typed data.
package prompts

import (
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// Template is a named, versioned prompt. RequiredKeys lists the top-level JSON keys a reply must
// carry when the template asks for structured output; it is empty for free-text prompts.
type Template struct {
	Name         string
	Version      string
	RequiredKeys []string
	tmpl         *template.Template
}

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

var registry = map[string]*Template{}

// register parses text and adds the template to the registry. It panics on a parse error or a
// duplicate ID since templates are package-level constants.
func register(name, version, text string, requiredKeys ...string) *Template {
	t := &Template{
		Name:         name,
		Version:      version,
		RequiredKeys: requiredKeys,
		tmpl:         template.Must(template.New(name + "/" + version).Option("missingkey=error").Funcs(funcs).Parse(text)),
	}
	if _, dup := registry[t.ID()]; dup {
		panic("prompts: duplicate template " + t.ID())
	}
	registry[t.ID()] = t
	return t
}

// ID returns "name/version".
func (t *Template) ID() string {
	return t.Name + "/" + t.Version
}

// Render executes the template with data.
func (t *Template) Render(data interface{}) (string, error) {
	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", t.ID(), err)
	}
	return sb.String(), nil
}

// Lookup returns the template registered under id ("name/version").
func Lookup(id string) (*Template, bool) {
	t, ok := registry[id]
	return t, ok
}

// IDs returns every registered template ID, sorted.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
