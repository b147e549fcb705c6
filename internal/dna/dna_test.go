package dna

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeforge-ai/codeforge/internal/router"
)

type fakeChatter struct {
	reply string
	err   error
	task  router.Task
	req   router.Request
}

func (f *fakeChatter) Chat(_ context.Context, t router.Task, req router.Request) (router.Response, router.Decision, error) {
	f.task, f.req = t, req
	if f.err != nil {
		return router.Response{}, router.Decision{}, f.err
	}
	return router.Response{Content: f.reply}, router.Decision{}, nil
}

var testForm = SetupForm{
	Name:      "Shop",
	Type:      "fullstack",
	Framework: "Next.js",
	Styling:   "Tailwind CSS",
	Features:  []string{"auth", "payments"},
}

func fixedGenerator(c Chatter) *Generator {
	g := NewGenerator(c, nil)
	g.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	return g
}

func TestGenerateParsesFencedReply(t *testing.T) {
	c := &fakeChatter{reply: "```json\n{\"projectId\":\"p1\",\"techStack\":{\"frontend\":{\"framework\":\"Vue\"}}}\n```"}
	d, src, err := fixedGenerator(c).Generate(context.Background(), testForm)
	require.NoError(t, err)

	assert.Equal(t, SourceModel, src)
	assert.Equal(t, "p1", d.ProjectID)
	assert.Equal(t, "Vue", d.TechStack.Frontend.Framework)
	assert.Equal(t, DefaultVersion, d.Version)
	assert.Equal(t, "2026-05-01T09:00:00Z", d.CreatedAt)
	assert.Equal(t, d.CreatedAt, d.UpdatedAt)

	assert.Equal(t, router.TaskComplexReasoning, c.task.Type)
	assert.Equal(t, router.QualityStandard, c.task.Quality)
	assert.Equal(t, 0.5, c.task.MaxCostUSD)
	require.Len(t, c.req.Messages, 2)
	assert.Equal(t, router.RoleSystem, c.req.Messages[0].Role)
	require.NotNil(t, c.req.Temperature)
	assert.Equal(t, 0.7, *c.req.Temperature)
}

func TestGenerateBackfillsID(t *testing.T) {
	c := &fakeChatter{reply: `{"version":"2.0.0"}`}
	d, _, err := fixedGenerator(c).Generate(context.Background(), testForm)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(d.ProjectID, "proj_"))
	assert.Equal(t, "2.0.0", d.Version)
}

func TestGenerateRepairsTrailingComma(t *testing.T) {
	c := &fakeChatter{reply: `{"projectId":"p2","features":["a","b",],}`}
	d, _, err := fixedGenerator(c).Generate(context.Background(), testForm)
	require.NoError(t, err)
	assert.Equal(t, "p2", d.ProjectID)
	assert.Equal(t, []string{"a", "b"}, d.Features)
}

func TestGenerateFallsBackOnProse(t *testing.T) {
	c := &fakeChatter{reply: "I cannot help with that."}
	d, src, err := fixedGenerator(c).Generate(context.Background(), testForm)
	require.NoError(t, err)
	assert.Equal(t, SourceTemplate, src)

	assert.True(t, strings.HasPrefix(d.ProjectID, "proj_"))
	assert.Equal(t, "Next.js", d.TechStack.Frontend.Framework)
	assert.Equal(t, "Next.js API", d.TechStack.Backend.Framework)
	assert.Equal(t, "PostgreSQL", d.TechStack.Database.Primary)
	assert.Equal(t, []string{"auth", "payments"}, d.Features)
	assert.Equal(t, "#3b82f6", d.DesignSystem.Colors["primary"])
	assert.Equal(t, 100, d.CodingStandards.CodeStyle.MaxLineLength)
	assert.Equal(t, DefaultVersion, d.Version)
}

func TestGenerateChatErrorReturned(t *testing.T) {
	c := &fakeChatter{err: router.ErrNoProviderConfigured}
	_, _, err := fixedGenerator(c).Generate(context.Background(), testForm)
	require.ErrorIs(t, err, router.ErrNoProviderConfigured)
}

func TestTemplateBackendByType(t *testing.T) {
	d := templateDNA(SetupForm{Type: "frontend"}, "id", time.Now())
	assert.Equal(t, "Express", d.TechStack.Backend.Framework)
	assert.Equal(t, "React", d.TechStack.Frontend.Framework)
	assert.NotNil(t, d.Features)
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt(testForm)
	assert.Contains(t, p, "- Name: Shop")
	assert.Contains(t, p, "- Description: Not provided")
	assert.Contains(t, p, "- Features: auth, payments")
	assert.NotContains(t, p, "Database:")

	f := testForm
	f.Database = "MongoDB"
	assert.Contains(t, buildPrompt(f), "- Database: MongoDB")
}

func TestCodecRoundTrip(t *testing.T) {
	d := templateDNA(testForm, "proj_x", time.Now())
	s, err := Compress(d)
	require.NoError(t, err)
	assert.NotContains(t, s, "\n")

	back, err := Decompress(s)
	require.NoError(t, err)
	assert.Equal(t, d, back)

	_, err = Decompress("{not json")
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	kind, _ := router.Classify(err)
	assert.Equal(t, router.KindDecode, kind)
}

func TestSystemPrompt(t *testing.T) {
	assert.Equal(t, "You are an expert software engineer. Generate clean, production-ready code.", SystemPrompt(nil))

	d := templateDNA(testForm, "id", time.Now())
	p := SystemPrompt(&d)
	assert.Contains(t, p, "- Framework: Next.js")
	naming, _ := json.Marshal(d.Architecture.NamingConventions)
	assert.Contains(t, p, string(naming))
	assert.Contains(t, p, `"maxLineLength":100`)
}

func TestProjectsCache(t *testing.T) {
	g := fixedGenerator(&fakeChatter{})
	p, err := NewProjects(2, g, nil)
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c"} {
		d := templateDNA(testForm, id, time.Now())
		require.NoError(t, p.Put(testForm, d))
	}
	assert.Equal(t, 2, p.Len())
	_, ok := p.Get("a")
	assert.False(t, ok, "oldest project should be evicted")

	got, ok := p.Get("c")
	require.True(t, ok)
	assert.Equal(t, "Shop", got.Name)
	assert.Equal(t, "c", got.DNA.ProjectID)
}

func TestProjectsCorruptEntryFallsBack(t *testing.T) {
	g := fixedGenerator(&fakeChatter{})
	p, err := NewProjects(0, g, nil)
	require.NoError(t, err)
	p.cache.Add("proj_bad", entry{doc: "{truncated", form: testForm})

	got, ok := p.Get("proj_bad")
	require.True(t, ok)
	assert.Equal(t, "proj_bad", got.DNA.ProjectID)
	assert.Equal(t, "Next.js API", got.DNA.TechStack.Backend.Framework)
	assert.Equal(t, "2026-05-01T09:00:00Z", got.DNA.CreatedAt)
}
