// Package api serves the launch server's REST surface: the in-game join
// proof exchange used by game servers and the static content file tree.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/team-ns/launcher/internal/auth"
	"github.com/team-ns/launcher/internal/logger"
	"github.com/team-ns/launcher/pkg/config"
	"github.com/team-ns/launcher/pkg/metrics"
)

// Config carries the API dependencies.
type Config struct {
	Provider  auth.Provider
	StaticDir string
	Textures  config.TexturesConfig
}

// API is the REST handler set.
type API struct {
	provider  auth.Provider
	staticDir string
	textures  config.TexturesConfig
}

// New creates the API from its dependencies.
func New(cfg Config) *API {
	return &API{
		provider:  cfg.Provider,
		staticDir: cfg.StaticDir,
		textures:  cfg.Textures,
	}
}

// Routes returns the REST router mounted beside the session endpoint.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/join", a.handleJoin)
	r.Get("/hasJoined", a.handleHasJoined)
	r.Post("/api/profiles/minecraft", a.handleProfilesByNames)
	r.Post("/api/profiles/{uuid}", a.handleProfileByUUID)
	r.Handle("/files/*", a.fileServer())
	return r
}

// fileServer serves the static content tree under /files, counting each hit.
func (a *API) fileServer() http.Handler {
	files := http.StripPrefix("/files/", http.FileServer(http.Dir(a.staticDir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.ObserveFileServed()
		files.ServeHTTP(w, r)
	})
}

// apiError is the error object shape game servers expect.
type apiError struct {
	Error        string `json:"error"`
	ErrorMessage string `json:"errorMessage"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("write response failed", logger.Err(err))
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, apiError{Error: kind, ErrorMessage: message})
}
