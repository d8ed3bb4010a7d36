package endpoints

import (
	"github.com/doodlesbykumbi/orchard/pkg/server"
)

// RegisterMetricsEndpoint serves the Prometheus registry on /metrics when
// metrics are enabled.
func RegisterMetricsEndpoint(s *server.Server) {
	if s.Metrics == nil || !s.Config.IsMetricsEnabled() {
		return
	}
	s.Router.Handle("/metrics", s.Metrics.Handler()).Methods("GET")
}
