package endpoints

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/doodlesbykumbi/orchard/pkg/config"
	"github.com/doodlesbykumbi/orchard/pkg/db/dbtest"
	"github.com/doodlesbykumbi/orchard/pkg/metrics"
	"github.com/doodlesbykumbi/orchard/pkg/server"
	"github.com/doodlesbykumbi/orchard/pkg/server/store"
)

// newTestServer creates a server with every endpoint registered, backed by
// an in-memory sqlite database.
func newTestServer(t *testing.T) *server.Server {
	t.Helper()
	return newTestServerWithConfig(t, config.Default())
}

func newTestServerWithConfig(t *testing.T, cfg *config.OrchardConfig) *server.Server {
	t.Helper()
	s := server.NewServer(dbtest.SQLite(t), cfg, server.Options{Metrics: metrics.New()})
	RegisterAll(s)
	return s
}

// newMockTestServer creates a server over a sqlmock database for driving
// failure paths.
func newMockTestServer(t *testing.T) (*server.Server, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{
			Conn:                 mockDB,
			PreferSimpleProtocol: true,
		}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		},
	)
	require.NoError(t, err)

	s := server.NewServer(gormDB, config.Default(), server.Options{})
	RegisterAll(s)
	return s, mock
}

func doRequest(s *server.Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func decodeTree(t *testing.T, w *httptest.ResponseRecorder) store.Tree {
	t.Helper()
	var tree store.Tree
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tree), w.Body.String())
	return tree
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body struct {
		Error ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error
}

// createTree posts a tree with the given branches as [length, leafCount]
// pairs and returns the stored tree.
func createTree(t *testing.T, s *server.Server, branches ...[2]int) store.Tree {
	t.Helper()
	payload := map[string]interface{}{
		"country":     "Chile",
		"ageYears":    120,
		"description": "araucaria",
	}
	var list []map[string]int
	for _, b := range branches {
		list = append(list, map[string]int{"length": b[0], "leafCount": b[1]})
	}
	payload["branches"] = list

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	w := doRequest(s, "POST", "/trees", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeTree(t, w)
}
