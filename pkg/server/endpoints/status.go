package endpoints

import (
	"net/http"

	"github.com/doodlesbykumbi/orchard/pkg/logger"
	"github.com/doodlesbykumbi/orchard/pkg/server"
	"github.com/doodlesbykumbi/orchard/pkg/server/store"
)

// StatusResponse is the body of GET /status
type StatusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RegisterStatusEndpoints registers the health endpoint
func RegisterStatusEndpoints(s *server.Server) {
	s.Router.HandleFunc("/status", handleStatus(s.HealthStore, s.Logger)).Methods("GET")
}

func handleStatus(healthStore store.HealthStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := healthStore.CheckConnectivity(r.Context()); err != nil {
			log.Warn("database connectivity check failed", "error", err)
			respondWithJSON(w, http.StatusServiceUnavailable, StatusResponse{
				Status: "error",
				Error:  "database connectivity check failed",
			})
			return
		}
		respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
	}
}
