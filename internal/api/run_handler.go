package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"gocausal/adapters/graphio"
	"gocausal/app"
	"gocausal/domain/causal"
	"gocausal/domain/core"
	"gocausal/domain/dataset"
	"gocausal/domain/run"
	"gocausal/internal/errors"
	"gocausal/internal/report"
	"gocausal/ports"

	"github.com/gin-gonic/gin"
)

// RunHandler serves discovery runs
type RunHandler struct {
	service  *app.DiscoveryService
	defaults causal.Params
}

// NewRunHandler creates a run handler. defaults fill any parameter a request omits.
func NewRunHandler(service *app.DiscoveryService, defaults causal.Params) *RunHandler {
	return &RunHandler{service: service, defaults: defaults}
}

// CreateRunRequest starts a run either on inline rows or on a file the server can read
type CreateRunRequest struct {
	Dataset string          `json:"dataset"`
	Source  string          `json:"source,omitempty"`
	Names   []string        `json:"names,omitempty"`
	Rows    [][]float64     `json:"rows,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Register mounts the run routes on r
func (h *RunHandler) Register(r gin.IRouter) {
	r.POST("/runs", h.CreateRun)
	r.GET("/runs", h.ListRuns)
	r.GET("/runs/:id", h.GetRun)
	r.GET("/runs/:id/edges", h.GetEdges)
	r.GET("/runs/:id/report", h.GetReport)
}

// CreateRun runs discovery synchronously and returns the stored record
func (h *RunHandler) CreateRun(c *gin.Context) {
	var req CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidInput(err.Error()))
		return
	}

	params := h.defaults
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			respondError(c, errors.ConfigInvalid("params: "+err.Error()))
			return
		}
	}

	ctx := c.Request.Context()
	switch {
	case req.Source != "" && len(req.Rows) > 0:
		respondError(c, errors.InvalidInput("give either source or rows, not both"))
	case req.Source != "":
		record, err := h.service.DiscoverFile(ctx, req.Source, params)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, record)
	case len(req.Rows) > 0:
		m, err := dataset.NewMatrix(req.Names, req.Rows)
		if err != nil {
			respondError(c, err)
			return
		}
		name := req.Dataset
		if name == "" {
			name = "inline"
		}
		record, err := h.service.Discover(ctx, app.DiscoveryRequest{Dataset: name, Matrix: m, Params: params})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, record)
	default:
		respondError(c, errors.InvalidInput("source or rows required"))
	}
}

// ListRuns returns run summaries, newest first
func (h *RunHandler) ListRuns(c *gin.Context) {
	filters := ports.RunFilters{Dataset: c.Query("dataset")}
	var err error
	if filters.Limit, err = queryInt(c, "limit"); err != nil {
		respondError(c, err)
		return
	}
	if filters.Offset, err = queryInt(c, "offset"); err != nil {
		respondError(c, err)
		return
	}

	runs, err := h.service.ListRuns(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	if runs == nil {
		runs = []run.Summary{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetRun returns one run record
func (h *RunHandler) GetRun(c *gin.Context) {
	id, ok := runID(c)
	if !ok {
		return
	}
	record, err := h.service.GetRun(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// GetEdges returns a run's edge list. ?variable= keeps edges touching one variable,
// ?into=true only those with an arrowhead at it, ?format= picks text, gml, dot or json.
func (h *RunHandler) GetEdges(c *gin.Context) {
	id, ok := runID(c)
	if !ok {
		return
	}
	format, err := graphio.ParseFormat(c.DefaultQuery("format", string(graphio.FormatJSON)))
	if err != nil {
		respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	into, err := queryBool(c, "into")
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	filter := ports.EdgeFilter{Variable: c.Query("variable"), IntoOnly: into}
	edges, err := h.service.Edges(ctx, id, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	record, err := h.service.GetRun(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", format.ContentType())
	c.Status(http.StatusOK)
	if err := graphio.Write(c.Writer, format, record.PAG.Nodes, edges); err != nil {
		c.Error(err)
	}
}

// GetReport returns the markdown summary of a run
func (h *RunHandler) GetReport(c *gin.Context) {
	id, ok := runID(c)
	if !ok {
		return
	}
	record, err := h.service.GetRun(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.Markdown(record)))
}

func runID(c *gin.Context) (core.RunID, bool) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		respondError(c, errors.InvalidInput(err.Error()))
		return "", false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.InvalidInput(key + " must be a non-negative integer")
	}
	return n, nil
}

func queryBool(c *gin.Context, key string) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.InvalidInput(key + " must be true or false")
	}
	return b, nil
}

func respondError(c *gin.Context, err error) {
	c.JSON(errors.HTTPStatus(err), gin.H{"error": err.Error(), "code": errors.CodeOf(err)})
}
