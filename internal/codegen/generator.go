package codegen

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"golang.org/x/tools/imports"
)

// TemplateGenerator handles template-based code generation.
type TemplateGenerator struct {
	FuncMap template.FuncMap
}

// NewTemplateGenerator creates a new TemplateGenerator with optional custom functions.
func NewTemplateGenerator(customFuncs template.FuncMap) *TemplateGenerator {
	return &TemplateGenerator{FuncMap: customFuncs}
}

// Render executes a template and returns the formatted source. The output is
// run through goimports so the generated import block is pruned and sorted.
func (g *TemplateGenerator) Render(name, tmplText string, data any) ([]byte, error) {
	tmpl, err := template.New(name).Funcs(g.FuncMap).Parse(tmplText)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}
	formatted, err := imports.Process(name, buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %w", err)
	}
	return formatted, nil
}

// GenerateFile executes a template and writes the formatted output to a file.
// On a formatting error the raw output is kept next to the target for
// inspection.
func (g *TemplateGenerator) GenerateFile(outputFile, tmplText string, data any) error {
	tmpl, err := template.New("gen").Funcs(g.FuncMap).Parse(tmplText)
	if err != nil {
		return fmt.Errorf("parsing template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}
	formatted, err := imports.Process(outputFile, buf.Bytes(), nil)
	if err != nil {
		_ = os.WriteFile(outputFile+".unformatted", buf.Bytes(), 0644)
		return fmt.Errorf("formatting generated code: %w (wrote unformatted to %s.unformatted)", err, outputFile)
	}
	if err := os.WriteFile(outputFile, formatted, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
