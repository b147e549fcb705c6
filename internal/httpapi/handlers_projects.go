package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codeforge-ai/codeforge/internal/dna"
	"github.com/codeforge-ai/codeforge/internal/events"
)

type ProjectCreateResponse struct {
	Success bool        `json:"success"`
	Project dna.Project `json:"project"`
	Message string      `json:"message"`
}

// ProjectCreateHandler generates DNA for a setup form and caches it.
func ProjectCreateHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form dna.SetupForm
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			jsonError(w, "bad json", http.StatusBadRequest)
			return
		}
		if form.Name == "" {
			jsonError(w, "Project name is required", http.StatusBadRequest)
			return
		}
		if form.Features == nil {
			form.Features = []string{}
		}

		doc, src, err := d.Generator.Generate(r.Context(), form)
		if err != nil {
			d.logger().Error("create project failed",
				slog.String("project", form.Name),
				slog.String("error", err.Error()))
			jsonFailure(w, "Failed to create project", http.StatusInternalServerError, err)
			return
		}
		if err := d.Projects.Put(form, doc); err != nil {
			jsonFailure(w, "Failed to create project", http.StatusInternalServerError, err)
			return
		}

		if d.Metrics != nil {
			d.Metrics.ProjectsTotal.WithLabelValues(string(src)).Inc()
		}
		d.EventBus.Publish(events.Event{Type: events.EventProjectCreated, ProjectID: doc.ProjectID})

		writeJSON(w, http.StatusOK, ProjectCreateResponse{
			Success: true,
			Project: dna.Project{
				ID:          doc.ProjectID,
				Name:        form.Name,
				Description: form.Description,
				DNA:         doc,
			},
			Message: "Project DNA generated successfully",
		})
	}
}

// ProjectGetHandler returns a cached project.
func ProjectGetHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := d.Projects.Get(chi.URLParam(r, "id"))
		if !ok {
			jsonError(w, "project not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
