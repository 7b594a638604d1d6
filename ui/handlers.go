package ui

import (
	"html/template"
	"net/http"

	"gocausal/domain/core"
	"gocausal/domain/run"
	"gocausal/internal/errors"
	"gocausal/internal/report"
	"gocausal/ports"

	"github.com/go-chi/chi/v5"
)

type indexPage struct {
	Runs    []run.Summary
	Dataset string
}

type runPage struct {
	Record *run.Record
	Report template.HTML
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	dataset := r.URL.Query().Get("dataset")
	runs, err := a.service.ListRuns(r.Context(), ports.RunFilters{Dataset: dataset, Limit: 100})
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderTemplate(w, "index.html", indexPage{Runs: runs, Dataset: dataset})
}

func (a *App) handleRun(w http.ResponseWriter, r *http.Request) {
	record, ok := a.loadRun(w, r)
	if !ok {
		return
	}
	// The report renderer drops raw HTML, so names from the data stay inert.
	a.renderTemplate(w, "run.html", runPage{Record: record, Report: template.HTML(report.HTML(record))})
}

func (a *App) handleRunMarkdown(w http.ResponseWriter, r *http.Request) {
	record, ok := a.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(report.Markdown(record)))
}

func (a *App) loadRun(w http.ResponseWriter, r *http.Request) (*run.Record, bool) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		a.renderError(w, errors.InvalidInput(err.Error()))
		return nil, false
	}
	record, err := a.service.GetRun(r.Context(), id)
	if err != nil {
		a.renderError(w, err)
		return nil, false
	}
	return record, true
}

func (a *App) renderError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("%v", err)
	}
	http.Error(w, err.Error(), status)
}
