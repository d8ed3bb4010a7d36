package endpoints

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/orchard/pkg/config"
)

func TestCreateTree(t *testing.T) {
	s := newTestServer(t)

	t.Run("creates tree with branches", func(t *testing.T) {
		tree := createTree(t, s, [2]int{25, 10}, [2]int{5, 2})

		require.NotNil(t, tree.ID)
		assert.Equal(t, "Chile", tree.Country)
		assert.Equal(t, 120, tree.AgeYears)
		require.Len(t, tree.Branches, 2)
		assert.Equal(t, *tree.ID, *tree.Branches[0].TreeID)
		assert.Equal(t, 10, *tree.Branches[0].LeafCount)
	})

	t.Run("rejects an id", func(t *testing.T) {
		w := doRequest(s, "POST", "/trees", `{"id": 5, "country": "Peru"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_request", decodeError(t, w).Code)
	})

	t.Run("rejects an incomplete branch", func(t *testing.T) {
		w := doRequest(s, "POST", "/trees", `{"country": "Peru", "branches": [{"length": 3}]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeError(t, w).Message, "branches[0].leafCount")
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		w := doRequest(s, "POST", "/trees", `{"country":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_request", decodeError(t, w).Code)
	})

	t.Run("rejects an empty body", func(t *testing.T) {
		w := doRequest(s, "POST", "/trees", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetTree(t *testing.T) {
	s := newTestServer(t)
	tree := createTree(t, s, [2]int{25, 10})

	t.Run("returns tree", func(t *testing.T) {
		w := doRequest(s, "GET", fmt.Sprintf("/trees/%d", *tree.ID), "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tree, decodeTree(t, w))
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	})

	t.Run("returns null for a missing tree", func(t *testing.T) {
		w := doRequest(s, "GET", "/trees/9999", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "null", w.Body.String())
	})

	t.Run("rejects a non-numeric id", func(t *testing.T) {
		w := doRequest(s, "GET", "/trees/oak", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListTrees(t *testing.T) {
	cfg := config.Default()
	cfg.ListLimitMax = 2
	s := newTestServerWithConfig(t, cfg)
	first := createTree(t, s, [2]int{1, 1})
	createTree(t, s)
	createTree(t, s)

	t.Run("lists every tree without a limit", func(t *testing.T) {
		w := doRequest(s, "GET", "/trees", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, fmt.Sprintf(`{"id": %d, "country": "Chile", "ageYears": 120, "description": "araucaria",
			"branches": [{"id": %d, "length": 1, "leafCount": 1, "treeId": %d}]}`,
			*first.ID, *first.Branches[0].ID, *first.ID), firstElement(t, w.Body.Bytes()))
		assert.Equal(t, 3, countElements(t, w.Body.Bytes()))
	})

	t.Run("caps the limit", func(t *testing.T) {
		w := doRequest(s, "GET", "/trees?limit=50", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 2, countElements(t, w.Body.Bytes()))
	})

	t.Run("applies limit and offset", func(t *testing.T) {
		w := doRequest(s, "GET", "/trees?limit=1&offset=1", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, countElements(t, w.Body.Bytes()))
	})

	t.Run("rejects a bad limit", func(t *testing.T) {
		w := doRequest(s, "GET", "/trees?limit=-1", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateTree(t *testing.T) {
	s := newTestServer(t)
	tree := createTree(t, s, [2]int{25, 10})
	path := fmt.Sprintf("/trees/%d", *tree.ID)

	t.Run("updates attributes and keeps branches", func(t *testing.T) {
		w := doRequest(s, "PUT", path, fmt.Sprintf(`{"id": %d, "country": "Argentina", "ageYears": 121}`, *tree.ID))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decodeTree(t, w)
		assert.Equal(t, "Argentina", updated.Country)
		assert.Len(t, updated.Branches, 1)
	})

	t.Run("rejects an id mismatch", func(t *testing.T) {
		w := doRequest(s, "PUT", path, fmt.Sprintf(`{"id": %d, "country": "Peru"}`, *tree.ID+1))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing tree", func(t *testing.T) {
		w := doRequest(s, "PUT", "/trees/9999", `{"country": "Peru"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", decodeError(t, w).Code)
	})
}

func TestDeleteTree(t *testing.T) {
	s := newTestServer(t)
	tree := createTree(t, s, [2]int{25, 10}, [2]int{5, 2})

	w := doRequest(s, "DELETE", fmt.Sprintf("/trees/%d", *tree.ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	for _, b := range tree.Branches {
		w := doRequest(s, "GET", fmt.Sprintf("/branches/%d", *b.ID), "")
		assert.Equal(t, "null", w.Body.String())
	}

	w = doRequest(s, "DELETE", fmt.Sprintf("/trees/%d", *tree.ID), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAddBranch(t *testing.T) {
	s := newTestServer(t)
	tree := createTree(t, s, [2]int{25, 10})
	path := fmt.Sprintf("/trees/%d/branch", *tree.ID)

	t.Run("returns the owning tree", func(t *testing.T) {
		w := doRequest(s, "POST", path, `{"length": 7, "leafCount": 3}`)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decodeTree(t, w)
		require.Len(t, updated.Branches, 2)
		assert.Equal(t, 7, *updated.Branches[1].Length)
		assert.Equal(t, *tree.ID, *updated.Branches[1].TreeID)
	})

	tests := []struct {
		name string
		body string
	}{
		{name: "id present", body: `{"id": 1, "length": 7, "leafCount": 3}`},
		{name: "length missing", body: `{"leafCount": 3}`},
		{name: "leaf count missing", body: `{"length": 7}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(s, "POST", path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	t.Run("missing tree", func(t *testing.T) {
		w := doRequest(s, "POST", "/trees/9999/branch", `{"length": 7, "leafCount": 3}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUpdateBranchWithinTree(t *testing.T) {
	s := newTestServer(t)
	tree := createTree(t, s, [2]int{25, 10})
	other := createTree(t, s, [2]int{3, 3})
	path := fmt.Sprintf("/trees/%d/branch", *tree.ID)
	branchID := *tree.Branches[0].ID

	t.Run("updates in place", func(t *testing.T) {
		body := fmt.Sprintf(`{"id": %d, "length": 30, "leafCount": 15}`, branchID)
		first := doRequest(s, "PUT", path, body)
		second := doRequest(s, "PUT", path, body)

		require.Equal(t, http.StatusOK, first.Code, first.Body.String())
		assert.JSONEq(t, first.Body.String(), second.Body.String())

		updated := decodeTree(t, first)
		require.Len(t, updated.Branches, 1)
		assert.Equal(t, branchID, *updated.Branches[0].ID)
		assert.Equal(t, 30, *updated.Branches[0].Length)
		assert.Equal(t, 15, *updated.Branches[0].LeafCount)

		w := doRequest(s, "GET", "/branches", "")
		assert.Equal(t, 2, countElements(t, w.Body.Bytes()))
	})

	t.Run("rejects a null id", func(t *testing.T) {
		w := doRequest(s, "PUT", path, `{"length": 30, "leafCount": 15}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a branch of another tree", func(t *testing.T) {
		w := doRequest(s, "PUT", path, fmt.Sprintf(`{"id": %d, "length": 1, "leafCount": 1}`, *other.Branches[0].ID))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doRequest(s, "GET", fmt.Sprintf("/trees/%d", *other.ID), "")
		assert.Equal(t, 3, *decodeTree(t, w).Branches[0].Length)
	})

	t.Run("missing tree", func(t *testing.T) {
		w := doRequest(s, "PUT", "/trees/9999/branch", fmt.Sprintf(`{"id": %d, "length": 1, "leafCount": 1}`, branchID))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRemoveBranchFromTree(t *testing.T) {
	s := newTestServer(t)
	tree := createTree(t, s, [2]int{25, 10}, [2]int{5, 2})
	other := createTree(t, s, [2]int{3, 3})
	path := fmt.Sprintf("/trees/%d/branch", *tree.ID)
	removed := *tree.Branches[0].ID

	t.Run("removes one branch", func(t *testing.T) {
		w := doRequest(s, "DELETE", path, fmt.Sprintf(`{"id": %d}`, removed))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decodeTree(t, w)
		require.Len(t, updated.Branches, 1)
		assert.Equal(t, *tree.Branches[1].ID, *updated.Branches[0].ID)

		w = doRequest(s, "GET", fmt.Sprintf("/branches/%d", removed), "")
		assert.Equal(t, "null", w.Body.String())
	})

	t.Run("branch already removed", func(t *testing.T) {
		w := doRequest(s, "DELETE", path, fmt.Sprintf(`{"id": %d}`, removed))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("branch of another tree", func(t *testing.T) {
		w := doRequest(s, "DELETE", path, fmt.Sprintf(`{"id": %d}`, *other.Branches[0].ID))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("null id", func(t *testing.T) {
		w := doRequest(s, "DELETE", path, `{"length": 5}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing tree", func(t *testing.T) {
		w := doRequest(s, "DELETE", "/trees/9999/branch", fmt.Sprintf(`{"id": %d}`, *tree.Branches[1].ID))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInternalErrors(t *testing.T) {
	s, mock := newMockTestServer(t)

	mock.ExpectQuery(`SELECT \* FROM "trees"`).WillReturnError(fmt.Errorf("connection reset by peer"))

	w := doRequest(s, "GET", "/trees", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "internal", body.Code)
	assert.NotContains(t, body.Message, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
