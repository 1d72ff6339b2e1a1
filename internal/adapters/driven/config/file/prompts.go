package file

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/ragbase-labs/ragbase/internal/core/ports/driven"
)

var _ driven.PromptProvider = (*PromptProvider)(nil)

// templateFile is the on-disk shape of prompts/<id>.yml: a YAML document
// whose system/user fields are themselves Go text/template bodies.
type templateFile struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// defaultTemplates ships the built-in templates used when no user file
// overrides them. The ask flow's synthesis prompt is instructed to answer
// from the retrieved material as if it were the model's own knowledge,
// never referencing "chunks", "context", or "documents" by name, and to
// hedge when LowConfidence is set.
var defaultTemplates = map[string]templateFile{
	driven.RagSynthesisTemplate: {
		System: `You are answering a question using the material below. Respond as if this is
your own knowledge, in your own words. Never use the words "chunks",
"embeddings", "context", or "documents", and never write phrases like
"Based on the provided information" or "Document 1". If the material does
not answer the question, say so plainly.
{{if .low_confidence}}
The retrieved material is only weakly related to the question. Hedge your
answer, note the uncertainty, and avoid inventing specifics not present in
the material.
{{end}}`,
		User: `Question: {{.query}}

Material:
{{.context}}`,
	},
}

// PromptProvider renders named templates from user-editable files on disk,
// falling back to the built-in defaults. Files are lazily created on first
// Render call rather than in the constructor.
type PromptProvider struct {
	mu         sync.RWMutex
	promptsDir string
	cache      map[string]*template.Template
	initOnce   sync.Once
	initErr    error
}

// NewPromptProvider creates a provider rooted at promptsDir (typically
// "<workspace>/prompts").
func NewPromptProvider(promptsDir string) *PromptProvider {
	return &PromptProvider{
		promptsDir: promptsDir,
		cache:      make(map[string]*template.Template),
	}
}

// Render looks up templateID, parses its system/user bodies as Go
// text/template (caching the parsed template), and executes them against
// vars.
func (p *PromptProvider) Render(templateID string, vars map[string]any) (string, string, error) {
	p.initOnce.Do(p.initialise)

	tf, err := p.loadTemplateFile(templateID)
	if err != nil {
		return "", "", fmt.Errorf("render %q: %w", templateID, err)
	}

	system, err := p.execute(templateID+":system", tf.System, vars)
	if err != nil {
		return "", "", fmt.Errorf("render %q system: %w", templateID, err)
	}
	user, err := p.execute(templateID+":user", tf.User, vars)
	if err != nil {
		return "", "", fmt.Errorf("render %q user: %w", templateID, err)
	}
	return system, user, nil
}

// Reload clears the parsed-template cache, forcing fresh reads from disk.
func (p *PromptProvider) Reload() {
	p.mu.Lock()
	p.cache = make(map[string]*template.Template)
	p.mu.Unlock()
}

func (p *PromptProvider) loadTemplateFile(templateID string) (templateFile, error) {
	path := filepath.Join(p.promptsDir, templateID+".yml")
	data, err := os.ReadFile(path)
	if err != nil {
		if def, ok := defaultTemplates[templateID]; ok {
			return def, nil
		}
		return templateFile{}, fmt.Errorf("template %q not found: %w", templateID, err)
	}

	var tf templateFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return templateFile{}, fmt.Errorf("parse template %q: %w", templateID, err)
	}
	return tf, nil
}

func (p *PromptProvider) execute(cacheKey, body string, vars map[string]any) (string, error) {
	p.mu.RLock()
	tmpl, ok := p.cache[cacheKey]
	p.mu.RUnlock()

	if !ok {
		parsed, err := template.New(cacheKey).Parse(body)
		if err != nil {
			return "", err
		}
		p.mu.Lock()
		p.cache[cacheKey] = parsed
		p.mu.Unlock()
		tmpl = parsed
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// initialise creates the prompts directory and writes default template
// files that don't already exist. Called once via sync.Once on first Render.
func (p *PromptProvider) initialise() {
	if err := os.MkdirAll(p.promptsDir, 0o700); err != nil {
		p.initErr = fmt.Errorf("create prompts directory: %w", err)
		return
	}

	for id, tf := range defaultTemplates {
		path := filepath.Join(p.promptsDir, id+".yml")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			data, err := yaml.Marshal(tf)
			if err != nil {
				p.initErr = fmt.Errorf("marshal default template %q: %w", id, err)
				return
			}
			if err := os.WriteFile(path, data, 0o600); err != nil {
				p.initErr = fmt.Errorf("write default template %q: %w", id, err)
				return
			}
		}
	}
}
