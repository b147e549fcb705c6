package dna

import (
	"errors"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize = 256

// Project is what the API returns for a created project.
type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	DNA         ProjectDNA `json:"dna"`
}

type entry struct {
	doc  string
	form SetupForm
}

// Projects holds recently created projects as compressed DNA documents.
// The least recently used project is evicted when the cache is full.
type Projects struct {
	cache  *lru.Cache[string, entry]
	gen    *Generator
	logger *slog.Logger
}

func NewProjects(size int, gen *Generator, logger *slog.Logger) (*Projects, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	c, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("project cache: %w", err)
	}
	return &Projects{cache: c, gen: gen, logger: logger}, nil
}

// Put stores d under its project ID.
func (p *Projects) Put(form SetupForm, d ProjectDNA) error {
	doc, err := Compress(d)
	if err != nil {
		return err
	}
	p.cache.Add(d.ProjectID, entry{doc: doc, form: form})
	return nil
}

// Get returns the DNA for id. A stored document that cannot be decoded is
// replaced by the template DNA for the project's form, keeping its ID.
func (p *Projects) Get(id string) (Project, bool) {
	e, ok := p.cache.Get(id)
	if !ok {
		return Project{}, false
	}
	d, err := Decompress(e.doc)
	if err != nil {
		var de *DecodeError
		if !errors.As(err, &de) {
			return Project{}, false
		}
		p.logger.Warn("stored project DNA is unreadable, using template",
			slog.String("project_id", id),
			slog.String("error", err.Error()))
		d = templateDNA(e.form, id, p.gen.now())
	}
	return Project{ID: id, Name: e.form.Name, Description: e.form.Description, DNA: d}, true
}

func (p *Projects) Len() int { return p.cache.Len() }
