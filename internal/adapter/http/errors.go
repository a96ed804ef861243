package http

import (
	"errors"
	"net/http"

	"github.com/hydroforecast/prediction-service/internal/domain"
)

// statusFor maps domain sentinels to HTTP status codes. Unknown errors are
// internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrTankNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLocationMissing),
		errors.Is(err, domain.ErrLocationNotFound),
		errors.Is(err, domain.ErrInsufficientHistory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrGeocodingUnavailable),
		errors.Is(err, domain.ErrForecastUnavailable),
		errors.Is(err, domain.ErrUpstreamFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
