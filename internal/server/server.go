// Package server is the HTTP front of the acquisition pipeline.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/taxcert/internal/acquire"
	"github.com/law-makers/taxcert/internal/adapter"
	"github.com/law-makers/taxcert/internal/directory"
	"github.com/law-makers/taxcert/pkg/models"
)

// Messages shown to callers.
const (
	MsgInvalidAccess     = "Invalid Access"
	MsgCountyUnavailable = "Service Unavailable for this county"
	MsgStateMissing      = "State value is missing"
)

const (
	maxRequestBody       = 64 << 10
	defaultReadTimeout   = 30 * time.Second
	defaultIdleTimeout   = 120 * time.Second
	defaultHeaderTimeout = 10 * time.Second
)

// Runner acquires one parcel. *acquire.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, a acquire.Adapter, account string) (models.ParcelTaxRecord, error)
}

// Server routes tax requests to the jurisdiction adapters.
type Server struct {
	registry  *adapter.Registry
	runner    Runner
	directory directory.Directory
	mux       *http.ServeMux
}

// TaxRequest is the body of POST /tax/{state}/{county}, as JSON or form.
type TaxRequest struct {
	FetchType models.FetchType `json:"fetch_type"`
	Account   string           `json:"account"`
}

type errorBody struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// New creates a server. dir answers the county listing.
func New(registry *adapter.Registry, runner Runner, dir directory.Directory) *Server {
	s := &Server{
		registry:  registry,
		runner:    runner,
		directory: dir,
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /tax/{state}/{county}", s.handleTax)
	s.mux.HandleFunc("GET /misc/county", s.handleCounties)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests for at most shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       defaultReadTimeout,
		ReadHeaderTimeout: defaultHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleTax(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTaxRequest(w, r)
	if err != nil || !req.FetchType.Valid() {
		renderError(w, MsgInvalidAccess)
		return
	}

	a, ok := s.registry.Lookup(r.PathValue("state"), r.PathValue("county"))
	if !ok {
		writeJSON(w, http.StatusOK, errorBody{Error: true, Message: MsgCountyUnavailable})
		return
	}

	rec, err := s.runner.Run(r.Context(), a, strings.TrimSpace(req.Account))
	if req.FetchType == models.FetchHTML {
		if err != nil {
			// HTML callers always get a page, never a 5xx; the degraded
			// record's note says what was attempted
			renderError(w, failureMessage(err), rec.Notes)
			return
		}
		renderRecord(w, rec)
		return
	}

	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: true, Message: failureMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]models.ParcelTaxRecord{"result": rec.Clone()})
}

func (s *Server) handleCounties(w http.ResponseWriter, r *http.Request) {
	state := strings.TrimSpace(r.URL.Query().Get("state"))
	if state == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": MsgStateMissing})
		return
	}

	counties, err := s.directory.Counties(r.Context(), state)
	if err != nil {
		log.Error().Err(err).Str("state", state).Msg("County directory lookup failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]adapter.County{"data": counties})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "healthy",
		"jurisdictions": len(s.registry.Jurisdictions()),
		"time":          time.Now().Format(time.RFC3339),
	})
}

func decodeTaxRequest(w http.ResponseWriter, r *http.Request) (TaxRequest, error) {
	var req TaxRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("invalid request: %w", err)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return req, fmt.Errorf("invalid request: %w", err)
		}
		req.FetchType = models.FetchType(r.PostFormValue("fetch_type"))
		req.Account = r.PostFormValue("account")
	}
	req.FetchType = models.FetchType(strings.ToLower(strings.TrimSpace(string(req.FetchType))))
	return req, nil
}

// failureMessage is the caller-facing text for a failed acquisition.
func failureMessage(err error) string {
	switch acquire.CodeOf(err) {
	case acquire.CodeInvalidAccount:
		return "Invalid account number"
	case acquire.CodeTimeout:
		return "The county website did not respond in time. Please try again later."
	case acquire.CodeBrowserUnavailable:
		return "The service is temporarily unavailable. Please try again later."
	default:
		return "Unable to retrieve tax information from the county website."
	}
}
