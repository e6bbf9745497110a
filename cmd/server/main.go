package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/liamcoop/updategate/gate"
	"github.com/liamcoop/updategate/internal/config"
	"github.com/liamcoop/updategate/internal/logger"
	"github.com/liamcoop/updategate/platform"
	"github.com/liamcoop/updategate/rules"
	"github.com/liamcoop/updategate/storelink"
)

// EvaluationIDHeader carries the ID assigned to each check
const EvaluationIDHeader = "X-Evaluation-ID"

type Server struct {
	gate           *gate.Gate
	platforms      *platform.Registry
	requestTimeout time.Duration
	router         *chi.Mux
}

func NewServer(cfg config.Config) (*Server, error) {
	g, err := gate.NewWithPolicy(gate.DefaultPolicy(), rules.CacheConfig{TTL: cfg.RuleCacheTTL})
	if err != nil {
		return nil, fmt.Errorf("failed to create update gate: %w", err)
	}

	policy, err := g.Policy()
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	logger.Info("policy loaded", "rules", len(policy))

	s := &Server{
		gate:           g,
		platforms:      platform.NewRegistry(),
		requestTimeout: cfg.RequestTimeout,
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/rules", s.handleListRules)
		r.Get("/platforms", s.handleListPlatforms)

		r.Post("/check", s.handleCheck)
		r.Post("/store", s.handleStore)
		r.Post("/complete", s.handleComplete)
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	policy, err := s.gate.Policy()
	if err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		RulesLoaded: len(policy),
		Checks:      logger.TotalChecks.Load(),
		Errors:      logger.TotalErrors.Load(),
		Warnings:    logger.TotalWarnings.Load(),
		Decisions:   logger.DecisionCounts(),
	})
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	policy, err := s.gate.Policy()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list rules", err)
		return
	}
	respondJSON(w, http.StatusOK, RulesListResponse{Rules: policy})
}

func (s *Server) handleListPlatforms(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, PlatformsListResponse{Platforms: s.platforms.List()})
}

// Check handler
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	evaluationID := uuid.NewString()
	w.Header().Set(EvaluationIDHeader, evaluationID)

	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Debug("undecodable check request", "evaluationId", evaluationID, "error", err)
		respondJSON(w, http.StatusBadRequest, CheckResponse{
			EvaluationID: evaluationID,
			Report:       gate.DecisionReport{Action: gate.ActionError, Reason: gate.ReasonBadArgs},
		})
		return
	}

	d, err := s.platforms.Get(req.Platform)
	if err != nil {
		respondError(w, http.StatusNotFound, "platform not found", err)
		return
	}

	ctx := r.Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	env := d.Environment(req.Facts)
	startTime := time.Now()

	resp := CheckResponse{
		EvaluationID: evaluationID,
		Report:       s.gate.Evaluate(ctx, req.Request, env),
	}

	if explain, _ := strconv.ParseBool(r.URL.Query().Get("explain")); explain {
		results, err := s.gate.Explain(req.Request, env)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "explain failed", err)
			return
		}
		resp.Rules = newRuleResults(results)
	}

	resp.EvaluationTime = time.Since(startTime).String()
	logger.Info("check evaluated",
		"evaluationId", evaluationID,
		"platform", resp.Report.Platform,
		"action", resp.Report.Action,
		"reason", resp.Report.Reason,
	)

	respondJSON(w, http.StatusOK, resp)
}

// Store link handler
func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	var req StoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.PackageOrAppID == "" {
		respondError(w, http.StatusBadRequest, string(gate.ReasonBadArgs), errors.New("packageOrAppId is required"))
		return
	}

	d, err := s.platforms.Get(req.Platform)
	if err != nil {
		respondError(w, http.StatusNotFound, "platform not found", err)
		return
	}

	respondJSON(w, http.StatusOK, StoreResponse{
		Link:     storelink.Resolve(d.Store, req.PackageOrAppID),
		StoreURL: d.Store.StoreURL(req.PackageOrAppID),
	})
}

// Complete update handler
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	d, err := s.platforms.Get(req.Platform)
	if err != nil {
		respondError(w, http.StatusNotFound, "platform not found", err)
		return
	}

	if err := s.gate.CompleteUpdate(r.Context(), d.Environment(req.Facts)); err != nil {
		var completeErr *gate.CompleteError
		if !errors.As(err, &completeErr) {
			completeErr = &gate.CompleteError{Err: err}
		}
		logger.Warn("complete update failed", "platform", d.Tag, "error", completeErr.Message())
		respondJSON(w, http.StatusBadGateway, CompleteErrorResponse{
			Code:    gate.CompleteErrorCode,
			Message: completeErr.Message(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal("invalid log level", "error", err)
	}
	logger.SetLevel(level)

	server, err := NewServer(cfg)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
