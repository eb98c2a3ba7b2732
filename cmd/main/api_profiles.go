package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/CTAG07/qsa/pkg/profile"
	"github.com/google/uuid"
)

// ProfileAPI holds the dependencies for the profile API handlers.
type ProfileAPI struct {
	store  *profile.Store
	config *ServerConfig
	gen    *GenerationConfig
	logger *slog.Logger
}

// NewProfileAPI creates a new instance of the ProfileAPI.
func NewProfileAPI(store *profile.Store, config *Config, logger *slog.Logger) *ProfileAPI {
	return &ProfileAPI{
		store:  store,
		config: config.Server,
		gen:    config.Generation,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/profiles endpoints.
func (p *ProfileAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/profiles", p.handleListProfiles)
	mux.HandleFunc("/api/profiles/", p.handleProfileByName)
	mux.HandleFunc("/api/import", p.handleImport)
}

// GenerateRequest is the JSON body of a generate call. Seed is optional.
type GenerateRequest struct {
	Count    int     `json:"count"`
	Strategy string  `json:"strategy"`
	Seed     *uint64 `json:"seed,omitempty"`
}

// GenerateResponse carries the generated lines.
type GenerateResponse struct {
	RequestID string   `json:"request_id"`
	Profile   string   `json:"profile"`
	Strategy  string   `json:"strategy"`
	Lines     []string `json:"lines"`
}

func (p *ProfileAPI) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeProfilesRead) {
		return
	}
	infos, err := p.store.GetProfileInfos(r.Context())
	if err != nil {
		p.logger.Error("Failed to get profile infos", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve profiles: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, infos)
}

// handleProfileByName routes actions for a single profile: stats, delete,
// train, generate and export.
func (p *ProfileAPI) handleProfileByName(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/profiles/")
	parts := strings.Split(strings.TrimSuffix(path, "/"), "/")
	name := parts[0]
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "Profile name not specified")
		return
	}

	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			if requireScope(w, r, scopeProfilesRead) {
				p.getStats(w, r, name)
			}
		case http.MethodDelete:
			if requireScope(w, r, scopeProfilesWrite) {
				p.removeProfile(w, r, name)
			}
		default:
			w.Header().Set("Allow", "GET, DELETE")
			respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	case "train":
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if requireScope(w, r, scopeProfilesWrite) {
			p.train(w, r, name)
		}
	case "generate":
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if requireScope(w, r, scopeProfilesRead) {
			p.generate(w, r, name)
		}
	case "export":
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if requireScope(w, r, scopeProfilesRead) {
			p.export(w, r, name)
		}
	default:
		respondWithError(w, http.StatusNotFound, "Action not found")
	}
}

// loadProfile loads name, writing the error response itself on failure.
func (p *ProfileAPI) loadProfile(w http.ResponseWriter, r *http.Request, name string) (*profile.Profile, bool) {
	prof, err := p.store.LoadProfile(r.Context(), name)
	if err != nil {
		p.respondWithProfileError(w, name, "load", err)
		return nil, false
	}
	return prof, true
}

func (p *ProfileAPI) getStats(w http.ResponseWriter, r *http.Request, name string) {
	prof, ok := p.loadProfile(w, r, name)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, prof.Stats())
}

func (p *ProfileAPI) removeProfile(w http.ResponseWriter, r *http.Request, name string) {
	if err := p.store.RemoveProfile(r.Context(), name); err != nil {
		p.respondWithProfileError(w, name, "remove", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// train reads the request body as a newline-separated corpus.
func (p *ProfileAPI) train(w http.ResponseWriter, r *http.Request, name string) {
	body := http.MaxBytesReader(w, r.Body, p.config.MaxBodySize)
	if err := p.store.Train(r.Context(), name, profile.NewLineScanner(body)); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "Corpus too large")
			return
		}
		p.respondWithProfileError(w, name, "train", err)
		return
	}
	info, err := p.store.GetProfileInfo(r.Context(), name)
	if err != nil {
		p.respondWithProfileError(w, name, "train", err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, info)
}

func (p *ProfileAPI) generate(w http.ResponseWriter, r *http.Request, name string) {
	var req GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	if req.Count < 0 || req.Count > p.config.MaxGenerate {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("count must be between 0 and %d", p.config.MaxGenerate))
		return
	}
	if req.Strategy == "" {
		req.Strategy = p.gen.Strategy
	}
	strategy, err := profile.ParseStrategy(req.Strategy)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	prof, ok := p.loadProfile(w, r, name)
	if !ok {
		return
	}
	gen, err := profile.NewGenerator(prof)
	if err != nil {
		p.respondWithProfileError(w, name, "generate", err)
		return
	}
	requestID := uuid.NewString()
	gen.SetLogger(p.logger.With("request_id", requestID))

	opts := p.gen.generateOptions()
	if req.Seed != nil {
		opts = append(opts, profile.WithSeed(*req.Seed))
	}
	lines, err := gen.Generate(r.Context(), strategy, req.Count, opts...)
	if err != nil {
		p.respondWithProfileError(w, name, "generate", err)
		return
	}
	respondWithJSON(w, http.StatusOK, GenerateResponse{
		RequestID: requestID,
		Profile:   name,
		Strategy:  strategy.String(),
		Lines:     lines,
	})
}

func (p *ProfileAPI) export(w http.ResponseWriter, r *http.Request, name string) {
	prof, ok := p.loadProfile(w, r, name)
	if !ok {
		return
	}
	format, ext, contentType := profile.FormatJSON, "json", "application/json"
	if f := r.URL.Query().Get("format"); f == "yaml" || f == "yml" {
		format, ext, contentType = profile.FormatYAML, "yaml", "application/yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.%s\"", name, ext))
	if err := profile.ExportProfile(w, name, prof, format); err != nil {
		p.logger.Error("Failed to export profile", "name", name, "error", err)
	}
}

// handleImport stores a profile document from the request body. YAML is
// accepted when the Content-Type says so; JSON otherwise.
func (p *ProfileAPI) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeProfilesWrite) {
		return
	}

	format := profile.FormatJSON
	if ct := r.Header.Get("Content-Type"); strings.Contains(ct, "yaml") {
		format = profile.FormatYAML
	}
	name, prof, err := profile.ImportProfile(http.MaxBytesReader(w, r.Body, p.config.MaxBodySize), format)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Import failed: %v", err))
		return
	}
	if override := r.URL.Query().Get("name"); override != "" {
		name = override
	}
	if err = p.store.SaveProfile(r.Context(), name, prof); err != nil {
		p.respondWithProfileError(w, name, "import", err)
		return
	}
	info, err := p.store.GetProfileInfo(r.Context(), name)
	if err != nil {
		p.respondWithProfileError(w, name, "import", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, info)
}

// respondWithProfileError maps profile errors onto HTTP status codes.
func (p *ProfileAPI) respondWithProfileError(w http.ResponseWriter, name, op string, err error) {
	switch {
	case errors.Is(err, profile.ErrProfileNotFound):
		respondWithError(w, http.StatusNotFound, "Profile not found")
	case errors.Is(err, profile.ErrInvalidArgument), errors.Is(err, profile.ErrEmptyTable):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, profile.ErrOutcomesExhausted):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		p.logger.Error("Profile operation failed", "op", op, "name", name, "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to %s profile: %v", op, err))
	}
}
