package endpoints

import (
	"errors"
	"net/http"

	"github.com/doodlesbykumbi/orchard/pkg/logger"
	"github.com/doodlesbykumbi/orchard/pkg/server"
	"github.com/doodlesbykumbi/orchard/pkg/server/store"
	"github.com/doodlesbykumbi/orchard/pkg/trees"
)

// RegisterTreesEndpoints registers the tree endpoints, including the
// endpoints that change a tree's branch collection.
func RegisterTreesEndpoints(s *server.Server) {
	svc := s.Trees
	log := s.Logger.With("component", "endpoints")
	limitMax := s.Config.ListLimitMax

	s.Router.HandleFunc("/trees", handleCreateTree(svc, log)).Methods("POST")
	s.Router.HandleFunc("/trees", handleListTrees(svc, log, limitMax)).Methods("GET")
	s.Router.HandleFunc("/trees/{id}", handleGetTree(svc, log)).Methods("GET")
	s.Router.HandleFunc("/trees/{id}", handleUpdateTree(svc, log)).Methods("PUT")
	s.Router.HandleFunc("/trees/{id}", handleDeleteTree(svc, log)).Methods("DELETE")

	s.Router.HandleFunc("/trees/{id}/branch", handleAddBranch(svc, log)).Methods("POST")
	s.Router.HandleFunc("/trees/{id}/branch", handleUpdateBranchWithinTree(svc, log)).Methods("PUT")
	s.Router.HandleFunc("/trees/{id}/branch", handleRemoveBranchFromTree(svc, log)).Methods("DELETE")
}

func handleCreateTree(svc *trees.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("endpoint", "name", "createTree")

		var tree store.Tree
		if err := decodeBody(r, &tree); err != nil {
			badRequest(w, "%s", err)
			return
		}

		created, err := svc.CreateTree(r.Context(), tree)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		respondWithJSON(w, http.StatusOK, created)
	}
}

func handleListTrees(svc *trees.Service, log *logger.Logger, limitMax int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("endpoint", "name", "listTrees")

		page, err := pageFromQuery(r, limitMax)
		if err != nil {
			badRequest(w, "%s", err)
			return
		}

		list, err := svc.ListTrees(r.Context(), page)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		respondWithJSON(w, http.StatusOK, list)
	}
}

// handleGetTree answers 200 with null for a missing tree.
func handleGetTree(svc *trees.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			badRequest(w, "%s", err)
			return
		}
		log.Info("endpoint", "name", "getTree", "tree", id)

		tree, err := svc.GetTree(r.Context(), id)
		if errors.Is(err, trees.ErrNotFound) {
			respondWithJSON(w, http.StatusOK, nil)
			return
		}
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		respondWithJSON(w, http.StatusOK, tree)
	}
}

func handleUpdateTree(svc *trees.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			badRequest(w, "%s", err)
			return
		}
		log.Info("endpoint", "name", "updateTree", "tree", id)

		var tree store.Tree
		if err := decodeBody(r, &tree); err != nil {
			badRequest(w, "%s", err)
			return
		}

		updated, err := svc.UpdateTree(r.Context(), id, tree)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		respondWithJSON(w, http.StatusOK, updated)
	}
}

func handleDeleteTree(svc *trees.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			badRequest(w, "%s", err)
			return
		}
		log.Info("endpoint", "name", "deleteTree", "tree", id)

		if err := svc.DeleteTree(r.Context(), id); err != nil {
			writeServiceError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func handleAddBranch(svc *trees.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		treeID, err := pathID(r, "id")
		if err != nil {
			badRequest(w, "%s", err)
			return
		}
		log.Info("endpoint", "name", "addBranch", "tree", treeID)

		var branch store.Branch
		if err := decodeBody(r, &branch); err != nil {
			badRequest(w, "%s", err)
			return
		}

		tree, err := svc.AddBranch(r.Context(), treeID, branch)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		respondWithJSON(w, http.StatusOK, tree)
	}
}

// handleUpdateBranchWithinTree answers 400 when the tree exists but holds no
// branch with the given id, and 404 when the tree itself is missing.
func handleUpdateBranchWithinTree(svc *trees.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		treeID, err := pathID(r, "id")
		if err != nil {
			badRequest(w, "%s", err)
			return
		}
		log.Info("endpoint", "name", "updateBranchWithinTree", "tree", treeID)

		var patch store.Branch
		if err := decodeBody(r, &patch); err != nil {
			badRequest(w, "%s", err)
			return
		}

		tree, err := svc.UpdateBranchWithinTree(r.Context(), treeID, patch)
		if errors.Is(err, store.ErrBranchNotFound) {
			badRequest(w, "%s", err)
			return
		}
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		respondWithJSON(w, http.StatusOK, tree)
	}
}

func handleRemoveBranchFromTree(svc *trees.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		treeID, err := pathID(r, "id")
		if err != nil {
			badRequest(w, "%s", err)
			return
		}
		log.Info("endpoint", "name", "removeBranchFromTree", "tree", treeID)

		var ref store.Branch
		if err := decodeBody(r, &ref); err != nil {
			badRequest(w, "%s", err)
			return
		}

		tree, err := svc.RemoveBranchFromTree(r.Context(), treeID, ref)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		respondWithJSON(w, http.StatusOK, tree)
	}
}
