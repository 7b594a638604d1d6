package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"gocausal/internal/config"
	"gocausal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerInMemory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.GinMode = "test"
	cfg.Discovery.Alpha = 0.05
	cfg.Discovery.Workers = 1

	c, err := New(cfg, nil)
	require.NoError(t, err)

	_, err = c.Handler()
	assert.Error(t, err, "handler before init")

	require.NoError(t, c.Open(context.Background()))
	assert.NotNil(t, c.Runs)
	assert.NotNil(t, c.Discovery)

	h, err := c.Handler()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, c.Shutdown(context.Background()))
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

type namedReader string

func (r namedReader) ReadMatrix(ctx context.Context, source string) (*ports.MatrixLoad, error) {
	return &ports.MatrixLoad{Source: string(r) + ":" + source}, nil
}

func TestSourceReaderRoutesBySource(t *testing.T) {
	r := &sourceReader{files: namedReader("file"), http: namedReader("http")}

	for source, want := range map[string]string{
		"data.csv":                      "file:data.csv",
		"/tmp/sheet.xlsx":               "file:/tmp/sheet.xlsx",
		"https://example.com/rows.json": "http:https://example.com/rows.json",
		"http://localhost:9000/rows":    "http:http://localhost:9000/rows",
	} {
		load, err := r.ReadMatrix(context.Background(), source)
		require.NoError(t, err)
		assert.Equal(t, want, load.Source)
	}
}
