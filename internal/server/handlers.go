package server

import (
	"net/http"

	"solarguardian/internal/logger"
	"solarguardian/internal/models"
)

// HandleRoot reports that the service is up
func (s *Server) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": s.Config.AppName + " API is running",
	})
}

// HandleSolarData builds and returns the aggregate space-weather report.
// Unavailable upstreams yield empty lists; only a strict flare policy
// rejection is a 500.
func (s *Server) HandleSolarData(w http.ResponseWriter, r *http.Request) {
	report, err := s.Aggregator.BuildReport(r.Context())
	if err != nil {
		s.log.Error("Report generation failed", err, logger.Fields{
			"request_id": RequestIDFrom(r.Context()),
		})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// HandleHealth provides health check endpoint. It never touches upstreams.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": models.FormatTimestamp(s.now()),
	})
}
