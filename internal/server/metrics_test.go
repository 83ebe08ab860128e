package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// newMetricsTestServer builds a Server backed by a fresh isolated registry so
// tests do not pollute prometheus.DefaultRegisterer.
func newMetricsTestServer(t *testing.T) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	s := newTestServer()
	s.cfg.MetricsRegistry = reg
	s.cfg.MetricsGatherer = reg
	s.metrics = newServerMetrics(reg)
	return s, reg
}

// findMetric returns the first metric in name whose labels include all of
// want, or nil.
func findMetric(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) *dto.Metric {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched == len(want) {
				return m
			}
		}
	}
	return nil
}

func Test_Metrics_EndpointReturns200(t *testing.T) {
	t.Parallel()
	_, reg := newMetricsTestServer(t)

	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	t.Cleanup(srv.Close)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/metrics", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("want 200, got %d", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("want text/plain content-type, got %q", ct)
	}
}

func Test_Metrics_CallLLMRecordsOutcome(t *testing.T) {
	t.Parallel()
	s, reg := newMetricsTestServer(t)

	_ = s.callLLM(context.Background(), "summarize", func(context.Context) error { return nil })
	_ = s.callLLM(context.Background(), "summarize", func(context.Context) error { return errors.New("boom") })
	_ = s.callLLM(context.Background(), "consensus", func(context.Context) error { return context.DeadlineExceeded })

	cases := []struct {
		op, outcome string
	}{
		{"summarize", outcomeOK},
		{"summarize", outcomeError},
		{"consensus", outcomeTimeout},
	}
	for _, tc := range cases {
		m := findMetric(t, reg, "sbke_llm_requests_total", map[string]string{"operation": tc.op, "outcome": tc.outcome})
		if m == nil {
			t.Errorf("sbke_llm_requests_total{operation=%q,outcome=%q} not found", tc.op, tc.outcome)
			continue
		}
		if got := m.GetCounter().GetValue(); got != 1 {
			t.Errorf("%s/%s: want counter=1, got %v", tc.op, tc.outcome, got)
		}
	}

	if m := findMetric(t, reg, "sbke_llm_duration_seconds", map[string]string{"operation": "summarize"}); m == nil {
		t.Error("sbke_llm_duration_seconds{operation=\"summarize\"} not found")
	} else if got := m.GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("want 2 duration samples, got %d", got)
	}
}

func Test_Metrics_MiddlewareLabelsByPattern(t *testing.T) {
	t.Parallel()
	s, reg := newMetricsTestServer(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/papers/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := s.metricsMiddleware(mux)

	for _, path := range []string{"/api/papers/1", "/api/papers/2", "/nowhere"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	m := findMetric(t, reg, "sbke_http_requests_total", map[string]string{
		labelHandler: "GET /api/papers/{id}",
		"code":       "418",
	})
	if m == nil {
		t.Fatal("pattern-labelled request counter not found")
	}
	if got := m.GetCounter().GetValue(); got != 2 {
		t.Errorf("want 2 requests for pattern, got %v", got)
	}

	if findMetric(t, reg, "sbke_http_requests_total", map[string]string{labelHandler: "unmatched", "code": "404"}) == nil {
		t.Error("unmatched request counter not found")
	}
}
