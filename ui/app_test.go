package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"gocausal/app"
	"gocausal/domain/causal"
	"gocausal/domain/core"
	"gocausal/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*App, *app.DiscoveryService) {
	t.Helper()
	svc := app.NewDiscoveryService(nil, testkit.NewInMemoryRunRepository(), nil)
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("api:" + r.URL.Path))
	})
	a, err := NewApp(svc, api, nil)
	require.NoError(t, err)
	return a, svc
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestIndexAndRunPages(t *testing.T) {
	a, svc := newTestApp(t)

	w := get(a, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No runs yet")

	cfg, err := testkit.Preset("chain")
	require.NoError(t, err)
	m, err := testkit.NewSEMGenerator(cfg).Generate()
	require.NoError(t, err)
	record, err := svc.Discover(context.Background(), app.DiscoveryRequest{Dataset: "chain<b>", Matrix: m, Params: causal.DefaultParams()})
	require.NoError(t, err)

	w = get(a, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/runs/"+record.ID.String())
	assert.Contains(t, w.Body.String(), "chain&lt;b&gt;")

	w = get(a, "/runs/"+record.ID.String())
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<table>")
	assert.NotContains(t, body, "<b>")

	w = get(a, "/runs/"+record.ID.String()+"/report.md")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "## Edges")
}

func TestRunPageErrors(t *testing.T) {
	a, _ := newTestApp(t)

	assert.Equal(t, http.StatusBadRequest, get(a, "/runs/xyz").Code)
	assert.Equal(t, http.StatusNotFound, get(a, "/runs/"+core.NewRunID().String()).Code)
}

func TestAPIMounted(t *testing.T) {
	a, _ := newTestApp(t)

	w := get(a, "/api/runs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "api:/runs", w.Body.String())
}
