package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, r *Registry, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := r.reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if matches(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matches(m *dto.Metric, labels map[string]string) bool {
	got := map[string]string{}
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range labels {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestObserveCall(t *testing.T) {
	r := New()
	r.ObserveCall("code_generation", "claude", "claude-3-5-sonnet-20241022", "ok", 820, 0.0045, 1000, 100)
	r.ObserveCall("code_generation", "claude", "claude-3-5-sonnet-20241022", "error", 30, 0, 0, 0)

	if got := counterValue(t, r, "codeforge_requests_total", map[string]string{"status": "ok"}); got != 1 {
		t.Errorf("ok requests = %v", got)
	}
	if got := counterValue(t, r, "codeforge_requests_total", map[string]string{"status": "error"}); got != 1 {
		t.Errorf("error requests = %v", got)
	}
	if got := counterValue(t, r, "codeforge_cost_usd_total", map[string]string{"provider": "claude"}); got != 0.0045 {
		t.Errorf("cost = %v", got)
	}
	if got := counterValue(t, r, "codeforge_tokens_total", map[string]string{"direction": "input"}); got != 1000 {
		t.Errorf("input tokens = %v", got)
	}
}

func TestHandlerExposesNamespace(t *testing.T) {
	r := New()
	r.StreamsTotal.WithLabelValues("openai", "gpt-4o").Inc()
	r.ProjectsTotal.WithLabelValues("template").Inc()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{"codeforge_streams_total", "codeforge_projects_created_total"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("missing %s in exposition", want)
		}
	}
}
