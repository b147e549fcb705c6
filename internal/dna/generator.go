package dna

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/oklog/ulid/v2"

	"github.com/codeforge-ai/codeforge/internal/router"
)

const (
	DefaultVersion = "1.0.0"

	// maxGenerationCostUSD caps the routed model's input price for one
	// generation.
	maxGenerationCostUSD = 0.5
	generationTemp       = 0.7
)

const architectPrompt = `You are an expert software architect. Generate a comprehensive Project DNA document in JSON format.
The DNA should include complete tech stack decisions, architecture patterns, naming conventions, design system,
coding standards, and all necessary configuration. Be specific and detailed. Output ONLY valid JSON, no markdown, no explanation.`

// Source tells where a generated document came from.
type Source string

const (
	SourceModel    Source = "model"
	SourceTemplate Source = "template"
)

// Chatter is the part of the gateway the generator needs.
type Chatter interface {
	Chat(ctx context.Context, t router.Task, req router.Request) (router.Response, router.Decision, error)
}

// Generator produces ProjectDNA documents from a setup form.
type Generator struct {
	chat   Chatter
	logger *slog.Logger
	now    func() time.Time
}

func NewGenerator(c Chatter, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{chat: c, logger: logger, now: time.Now}
}

// Generate asks a complex_reasoning model for a DNA document. A reply that
// cannot be parsed, even after repair, yields the template document. A
// failed model call is returned as an error.
func (g *Generator) Generate(ctx context.Context, form SetupForm) (ProjectDNA, Source, error) {
	task := router.Task{
		Type:       router.TaskComplexReasoning,
		Quality:    router.QualityStandard,
		MaxCostUSD: maxGenerationCostUSD,
	}
	temp := generationTemp
	resp, _, err := g.chat.Chat(ctx, task, router.Request{
		Messages: []router.Message{
			{Role: router.RoleSystem, Content: architectPrompt},
			{Role: router.RoleUser, Content: buildPrompt(form)},
		},
		Temperature: &temp,
	})
	if err != nil {
		return ProjectDNA{}, "", fmt.Errorf("generate project DNA: %w", err)
	}

	d, err := parseDNA(resp.Content)
	if err != nil {
		g.logger.Warn("model reply is not a DNA document, using template",
			slog.String("project", form.Name),
			slog.String("error", err.Error()))
		return g.Fallback(form), SourceTemplate, nil
	}
	g.backfill(&d)
	return d, SourceModel, nil
}

func parseDNA(content string) (ProjectDNA, error) {
	raw := router.ExtractJSON(content)
	var d ProjectDNA
	err := json.Unmarshal([]byte(raw), &d)
	if err == nil {
		return d, nil
	}
	repaired, rerr := jsonrepair.JSONRepair(raw)
	if rerr != nil {
		return ProjectDNA{}, fmt.Errorf("unmarshal: %w", err)
	}
	d = ProjectDNA{}
	if err := json.Unmarshal([]byte(repaired), &d); err != nil {
		return ProjectDNA{}, fmt.Errorf("unmarshal repaired: %w", err)
	}
	return d, nil
}

func (g *Generator) backfill(d *ProjectDNA) {
	ts := g.now().UTC().Format(time.RFC3339Nano)
	if d.ProjectID == "" {
		d.ProjectID = NewProjectID()
	}
	if d.CreatedAt == "" {
		d.CreatedAt = ts
	}
	if d.UpdatedAt == "" {
		d.UpdatedAt = ts
	}
	if d.Version == "" {
		d.Version = DefaultVersion
	}
}

// NewProjectID returns a fresh sortable project identifier.
func NewProjectID() string {
	return "proj_" + strings.ToLower(ulid.Make().String())
}

func buildPrompt(form SetupForm) string {
	desc := form.Description
	if desc == "" {
		desc = "Not provided"
	}
	var b strings.Builder
	b.WriteString("\nGenerate a Project DNA for the following project:\n\n")
	b.WriteString("**Project Details:**\n")
	fmt.Fprintf(&b, "- Name: %s\n", form.Name)
	fmt.Fprintf(&b, "- Description: %s\n", desc)
	fmt.Fprintf(&b, "- Type: %s\n", form.Type)
	fmt.Fprintf(&b, "- Framework: %s\n", form.Framework)
	fmt.Fprintf(&b, "- Styling: %s\n", form.Styling)
	if form.Database != "" {
		fmt.Fprintf(&b, "- Database: %s\n", form.Database)
	}
	fmt.Fprintf(&b, "- Features: %s\n", strings.Join(form.Features, ", "))
	b.WriteString(`
**Requirements:**
1. Choose appropriate tech stack based on the framework and project type
2. Define a clear architecture pattern
3. Establish naming conventions for files, variables, components, and constants
4. Create a comprehensive folder structure
5. Define a cohesive design system (colors, typography, spacing)
6. Set coding standards (linter, formatter, testing framework)
7. List necessary dependencies
8. Set environment requirements

Generate a complete ProjectDNA JSON object with all these details. Be specific and production-ready.
`)
	return b.String()
}

// Fallback builds the template DNA for form.
func (g *Generator) Fallback(form SetupForm) ProjectDNA {
	return templateDNA(form, NewProjectID(), g.now())
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func templateDNA(form SetupForm, id string, now time.Time) ProjectDNA {
	ts := now.UTC().Format(time.RFC3339Nano)
	var d ProjectDNA
	d.ProjectID = id

	d.TechStack.Frontend.Framework = orDefault(form.Framework, "React")
	d.TechStack.Frontend.Language = "TypeScript"
	d.TechStack.Frontend.Styling = orDefault(form.Styling, "Tailwind CSS")
	d.TechStack.Frontend.UILibrary = "shadcn/ui"
	d.TechStack.Backend.Runtime = "Node.js"
	d.TechStack.Backend.Framework = "Express"
	if form.Type == "fullstack" {
		d.TechStack.Backend.Framework = "Next.js API"
	}
	d.TechStack.Backend.Language = "TypeScript"
	d.TechStack.Database.Primary = orDefault(form.Database, "PostgreSQL")
	d.TechStack.Database.ORM = "Prisma"
	d.TechStack.Database.Cache = "Redis"

	d.Architecture = Architecture{
		Structure: "monorepo",
		Pattern:   "Feature-based",
		NamingConventions: NamingConventions{
			Files:      "kebab-case",
			Variables:  "camelCase",
			Components: "PascalCase",
			Constants:  "UPPER_SNAKE_CASE",
		},
		FolderStructure: []string{
			"src/app", "src/components/ui", "src/components/features", "src/lib",
			"src/hooks", "src/types", "src/store", "prisma", "public", "tests",
		},
	}

	d.Features = append([]string{}, form.Features...)

	d.DesignSystem.Colors = map[string]string{
		"primary":    "#3b82f6",
		"secondary":  "#8b5cf6",
		"accent":     "#f59e0b",
		"background": "#ffffff",
		"foreground": "#0a0a0a",
		"muted":      "#f1f5f9",
		"border":     "#e2e8f0",
	}
	d.DesignSystem.Typography.FontFamily = "Inter, system-ui, sans-serif"
	d.DesignSystem.Typography.FontSize = map[string]string{
		"xs": "0.75rem", "sm": "0.875rem", "base": "1rem", "lg": "1.125rem", "xl": "1.25rem",
	}
	d.DesignSystem.Spacing = "8px"
	d.DesignSystem.BorderRadius = "8px"

	d.CodingStandards = CodingStandards{
		Linter:      "ESLint",
		Formatter:   "Prettier",
		Testing:     "Vitest",
		CommitStyle: "Conventional Commits",
		CodeStyle: CodeStyle{
			MaxLineLength: 100,
			Semicolons:    true,
			Quotes:        "single",
			TrailingComma: "all",
			TabWidth:      2,
		},
	}

	d.Dependencies = Dependencies{
		Production: map[string]string{
			"react":          "^18.3.0",
			"next":           "^14.0.0",
			"@prisma/client": "^5.0.0",
			"zustand":        "^4.0.0",
		},
		Development: map[string]string{
			"typescript":   "^5.0.0",
			"@types/react": "^18.0.0",
			"@types/node":  "^20.0.0",
			"prettier":     "^3.0.0",
			"eslint":       "^8.0.0",
		},
	}
	d.Environment = Environment{NodeVersion: "20.x", PackageManager: "npm"}
	d.CreatedAt = ts
	d.UpdatedAt = ts
	d.Version = DefaultVersion
	return d
}

// SystemPrompt is the code-generation system prompt, conditioned on d when
// present.
func SystemPrompt(d *ProjectDNA) string {
	if d == nil {
		return "You are an expert software engineer. Generate clean, production-ready code."
	}
	naming, _ := json.Marshal(d.Architecture.NamingConventions)
	style, _ := json.Marshal(d.CodingStandards.CodeStyle)
	return fmt.Sprintf(`You are an expert software engineer. Generate high-quality code following these project standards:

**Tech Stack:**
- Framework: %s
- Language: %s
- Styling: %s

**Coding Standards:**
- Naming conventions: %s
- Code style: %s

Generate clean, production-ready code that follows these standards.`,
		d.TechStack.Frontend.Framework,
		d.TechStack.Frontend.Language,
		d.TechStack.Frontend.Styling,
		naming, style)
}
