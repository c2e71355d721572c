package bookgen

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPromptsYAML []byte

const defaultOutfit = "white shirt, red jacket, and jeans"

type promptFile struct {
	Version              int    `yaml:"version"`
	System               string `yaml:"system"`
	Book                 string `yaml:"book"`
	Illustration         string `yaml:"illustration"`
	IllustrationFallback string `yaml:"illustration_fallback"`
}

// Prompts holds the compiled prompt templates.
type Prompts struct {
	system       string
	book         *template.Template
	illustration *template.Template
	fallback     *template.Template
}

type promptInput struct {
	Subject  Subject
	Outfit   string
	Pages    int
	MinWords int
	MaxWords int
	Scene    string
}

func DefaultPrompts() (*Prompts, error) {
	return ParsePrompts(defaultPromptsYAML)
}

func ParsePrompts(raw []byte) (*Prompts, error) {
	var f promptFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode prompts: %w", err)
	}
	if f.Version <= 0 {
		return nil, fmt.Errorf("invalid prompts version %d", f.Version)
	}
	if strings.TrimSpace(f.System) == "" {
		return nil, fmt.Errorf("missing system prompt")
	}
	p := &Prompts{system: strings.TrimSpace(f.System)}
	var err error
	if p.book, err = compilePrompt("book", f.Book); err != nil {
		return nil, err
	}
	if p.illustration, err = compilePrompt("illustration", f.Illustration); err != nil {
		return nil, err
	}
	if p.fallback, err = compilePrompt("illustration_fallback", f.IllustrationFallback); err != nil {
		return nil, err
	}
	return p, nil
}

func compilePrompt(name, text string) (*template.Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("missing %s prompt", name)
	}
	t, err := template.New(name).
		Option("missingkey=zero").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%s template parse: %w", name, err)
	}
	return t, nil
}

func render(t *template.Template, in promptInput) (string, error) {
	if strings.TrimSpace(in.Outfit) == "" {
		in.Outfit = defaultOutfit
	}
	var b bytes.Buffer
	if err := t.Execute(&b, in); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return strings.TrimSpace(b.String()), nil
}

func (p *Prompts) System() string { return p.system }

func (p *Prompts) Book(s Subject, pages int) (string, error) {
	return render(p.book, promptInput{
		Subject:  s,
		Outfit:   s.Outfit,
		Pages:    pages,
		MinWords: pages * 20,
		MaxWords: pages * 25,
	})
}

func (p *Prompts) Illustration(s Subject, scene string) (string, error) {
	return render(p.illustration, promptInput{Subject: s, Outfit: s.Outfit, Scene: scene})
}

// Fallback is built from the subject alone, with no scene.
func (p *Prompts) Fallback(s Subject) (string, error) {
	return render(p.fallback, promptInput{Subject: s, Outfit: s.Outfit})
}
