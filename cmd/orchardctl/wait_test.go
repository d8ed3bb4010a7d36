package main

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitForServer(t *testing.T) {
	t.Run("ready once status succeeds", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/status", r.URL.Path)
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		err := waitForServer(srv.URL, 5, time.Millisecond)
		assert.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after retries", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		err := waitForServer(srv.URL, 2, time.Millisecond)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "2 attempts")
	})
}

func TestWithMigrationsTable(t *testing.T) {
	assert.Equal(t,
		"postgres://localhost/orchard?x-migrations-table=orchard_schema_migrations",
		withMigrationsTable("postgres://localhost/orchard"))
	assert.Equal(t,
		"postgres://localhost/orchard?sslmode=disable&x-migrations-table=orchard_schema_migrations",
		withMigrationsTable("postgres://localhost/orchard?sslmode=disable"))
}
