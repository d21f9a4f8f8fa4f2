package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/etnz/tradechain"
	"github.com/etnz/tradechain/renderer"
)

//go:embed layout.html
var layoutFS embed.FS

var layout = template.Must(template.ParseFS(layoutFS, "layout.html"))

// gfm renders the pipe tables the renderer package emits.
var gfm = goldmark.New(goldmark.WithExtensions(extension.GFM))

type page struct {
	Title string
	Body  template.HTML
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "tcs",
	})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	res, err := s.consolidated()
	if err != nil {
		s.renderError(w, err)
		return
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "# Trade Chains\n\n")
	fmt.Fprintf(&b, "%s\n\n", tradechain.NewStats(res.Chains))
	for _, c := range res.Chains {
		fmt.Fprintf(&b, "* [%s](/chains/%s) %s\n", c.ID, c.ID, c.Status)
	}
	s.renderMarkdown(w, "home", b.String())
}

func (s *Server) handleChains(w http.ResponseWriter, r *http.Request) {
	res, err := s.consolidated()
	if err != nil {
		s.renderError(w, err)
		return
	}
	s.renderMarkdown(w, "chains", renderer.ChainsMarkdown(res.Chains, res.Positions))
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	res, err := s.consolidated()
	if err != nil {
		s.renderError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	chain := res.Chains.Get(id)
	if chain == nil {
		http.NotFound(w, r)
		return
	}
	s.renderMarkdown(w, id, renderer.ChainMarkdown(chain, res.Positions))
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	res, err := s.consolidated()
	if err != nil {
		s.renderError(w, err)
		return
	}
	s.renderMarkdown(w, "transactions", renderer.TransactionsMarkdown(res.Transactions))
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	res, err := s.consolidated()
	if err != nil {
		s.renderError(w, err)
		return
	}
	s.renderMarkdown(w, "positions", renderer.PositionsMarkdown(res.Positions))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	res, err := s.consolidated()
	if err != nil {
		s.renderError(w, err)
		return
	}
	s.renderMarkdown(w, "stats", renderer.StatsMarkdown(res.Chains))
}

// renderMarkdown converts a markdown report to HTML and wraps it in the
// layout.
func (s *Server) renderMarkdown(w http.ResponseWriter, title, markdown string) {
	var buf bytes.Buffer
	if err := gfm.Convert([]byte(markdown), &buf); err != nil {
		s.renderError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := layout.Execute(w, page{Title: title, Body: template.HTML(buf.String())}); err != nil {
		s.log.Error().Err(err).Msg("Failed to render page")
	}
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("Request failed")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
