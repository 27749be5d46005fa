// Package ui serves a read-only view of a generation campaign: registry
// state as JSON and the latest run report rendered as HTML. It never writes
// anything, so it can run next to an active campaign.
package ui

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"takforge/ports"
)

// Server exposes the registry and the run report over HTTP.
type Server struct {
	registry   ports.RegistryStore
	reportPath string
	port       string
}

// NewServer creates the report server.
func NewServer(registry ports.RegistryStore, reportPath, port string) *Server {
	return &Server{registry: registry, reportPath: reportPath, port: port}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/registry", s.handleRegistry)
	r.Get("/report", s.handleReport)
	return r
}

// ListenAndServe blocks serving the router.
func (s *Server) ListenAndServe() error {
	log.Printf("[Server] listening on :%s", s.port)
	return http.ListenAndServe(":"+s.port, s.Router())
}

func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	entries, err := s.registry.All(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("registry read failed: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		log.Printf("[Server] encode registry: %v", err)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	md, err := os.ReadFile(s.reportPath)
	if os.IsNotExist(err) {
		http.Error(w, "no run report available yet", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("report read failed: %v", err), http.StatusInternalServerError)
		return
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	body := markdown.Render(p.Parse(md), renderer)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>TAK Generation Report</title></head><body>%s</body></html>", body)
}
