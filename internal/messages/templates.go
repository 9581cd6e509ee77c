package messages

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"text/template"

	"gopkg.in/yaml.v3"
)

var ErrTemplateNotFound = errors.New("message template not found")

type templateSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Body        string `yaml:"body"`
}

type catalogFile struct {
	Templates []templateSpec `yaml:"templates"`
}

type TemplateInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Catalog holds the parsed coaching note templates by name.
type Catalog struct {
	templates map[string]*template.Template
	infos     []TemplateInfo
}

func LoadCatalog(path string) (*Catalog, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates file: %w", err)
	}
	return ParseCatalog(content)
}

func ParseCatalog(content []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("unmarshal templates: %w", err)
	}

	c := &Catalog{
		templates: make(map[string]*template.Template, len(file.Templates)),
	}
	for _, spec := range file.Templates {
		if spec.Name == "" {
			return nil, errors.New("template without name")
		}
		if _, ok := c.templates[spec.Name]; ok {
			return nil, fmt.Errorf("duplicate template [%s]", spec.Name)
		}

		tmpl, err := template.New(spec.Name).Option("missingkey=error").Parse(spec.Body)
		if err != nil {
			return nil, fmt.Errorf("parse template [%s]: %w", spec.Name, err)
		}
		c.templates[spec.Name] = tmpl
		c.infos = append(c.infos, TemplateInfo{Name: spec.Name, Description: spec.Description})
	}

	sort.Slice(c.infos, func(i, j int) bool {
		return c.infos[i].Name < c.infos[j].Name
	})

	return c, nil
}

func (c *Catalog) Templates() []TemplateInfo {
	return c.infos
}

func (c *Catalog) Render(name string, vars Variables) (string, error) {
	tmpl, ok := c.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render template [%s]: %w", name, err)
	}
	return buf.String(), nil
}
