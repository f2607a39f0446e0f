package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"jokebot/bot"
	"jokebot/generator"
	"jokebot/publisher"
)

const cycleTimeout = 5 * time.Minute

// Cycler is satisfied by *bot.Bot.
type Cycler interface {
	RunOnce(ctx context.Context, prompt string) *bot.Report
}

type Server struct {
	cycler    Cycler
	providers []string
	pub       *publisher.Publisher
	logger    *zap.Logger
}

func New(cycler Cycler, providers []string, pub *publisher.Publisher, logger *zap.Logger) (*Server, error) {
	if cycler == nil {
		return nil, errors.New("cycle runner required")
	}
	if pub == nil {
		return nil, errors.New("publisher required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cycler: cycler, providers: providers, pub: pub, logger: logger}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/prompts", s.handlePrompts)
	mux.HandleFunc("/api/providers", s.handleProviders)
	mux.HandleFunc("/api/cycles", s.handleCycle)
	mux.HandleFunc("/api/preview", s.handlePreview)
	return logMiddleware(s.logger, mux)
}

// --- Handlers ---

type cycleReq struct {
	Prompt string `json:"prompt"`
}

type previewReq struct {
	Jokes []string `json:"jokes"`
}

type providersResp struct {
	Providers []string `json:"providers"`
	Publisher string   `json:"publisher"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handlePrompts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, generator.Catalog)
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	state := "enabled"
	switch {
	case s.pub.DryRun():
		state = "dry_run"
	case !s.pub.Enabled():
		state = "disabled"
	}
	providers := s.providers
	if providers == nil {
		providers = []string{}
	}
	writeJSON(w, providersResp{Providers: providers, Publisher: state})
}

func (s *Server) handleCycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// an empty body, sized or chunked, means "pick a catalog prompt"
	var req cycleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), cycleTimeout)
	defer cancel()
	report := s.cycler.RunOnce(ctx, req.Prompt)
	if report == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, report)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req previewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, s.pub.Preview(req.Jokes))
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
