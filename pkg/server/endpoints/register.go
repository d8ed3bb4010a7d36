package endpoints

import (
	"github.com/doodlesbykumbi/orchard/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterTreesEndpoints(srv)
	RegisterBranchesEndpoints(srv)
	RegisterStatusEndpoints(srv)
	RegisterMetricsEndpoint(srv)
}
