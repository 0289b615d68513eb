package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/taxcert/internal/output"
	"github.com/law-makers/taxcert/pkg/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write JSON response")
	}
}

func renderRecord(w http.ResponseWriter, rec models.ParcelTaxRecord) {
	var buf bytes.Buffer
	if err := output.RenderHTML(&buf, rec); err != nil {
		log.Error().Err(err).Str("parcel", rec.ParcelNumber).Msg("Failed to render record")
		renderError(w, "Unable to display the tax certificate.")
		return
	}
	writeHTML(w, buf.Bytes())
}

// renderError writes the error view. It is always a 200.
func renderError(w http.ResponseWriter, message string, notes ...string) {
	var buf bytes.Buffer
	if err := output.RenderErrorHTML(&buf, message, notes...); err != nil {
		log.Error().Err(err).Msg("Failed to render error view")
		http.Error(w, message, http.StatusOK)
		return
	}
	writeHTML(w, buf.Bytes())
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Warn().Err(err).Msg("Failed to write HTML response")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		event := log.Info()
		if rec.status >= http.StatusInternalServerError {
			event = log.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	})
}
