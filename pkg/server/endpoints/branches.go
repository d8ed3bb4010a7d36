package endpoints

import (
	"errors"
	"net/http"

	"github.com/doodlesbykumbi/orchard/pkg/logger"
	"github.com/doodlesbykumbi/orchard/pkg/server"
	"github.com/doodlesbykumbi/orchard/pkg/trees"
)

// RegisterBranchesEndpoints registers the endpoints addressing branches
// directly by id.
func RegisterBranchesEndpoints(s *server.Server) {
	svc := s.Trees
	log := s.Logger.With("component", "endpoints")
	limitMax := s.Config.ListLimitMax

	s.Router.HandleFunc("/branches", handleListBranches(svc, log, limitMax)).Methods("GET")
	s.Router.HandleFunc("/branches/{id}", handleGetBranch(svc, log)).Methods("GET")
	s.Router.HandleFunc("/branches/{id}", handleDeleteBranch(svc, log)).Methods("DELETE")
}

func handleListBranches(svc *trees.Service, log *logger.Logger, limitMax int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("endpoint", "name", "listBranches")

		page, err := pageFromQuery(r, limitMax)
		if err != nil {
			badRequest(w, "%s", err)
			return
		}

		list, err := svc.ListBranches(r.Context(), page)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		respondWithJSON(w, http.StatusOK, list)
	}
}

// handleGetBranch answers 200 with null for a missing branch.
func handleGetBranch(svc *trees.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			badRequest(w, "%s", err)
			return
		}
		log.Info("endpoint", "name", "getBranch", "branch", id)

		branch, err := svc.GetBranch(r.Context(), id)
		if errors.Is(err, trees.ErrNotFound) {
			respondWithJSON(w, http.StatusOK, nil)
			return
		}
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		respondWithJSON(w, http.StatusOK, branch)
	}
}

func handleDeleteBranch(svc *trees.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			badRequest(w, "%s", err)
			return
		}
		log.Info("endpoint", "name", "deleteBranch", "branch", id)

		if err := svc.DeleteBranch(r.Context(), id); err != nil {
			writeServiceError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
