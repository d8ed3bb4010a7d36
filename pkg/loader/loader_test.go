package loader

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/orchard/pkg/audit"
	"github.com/doodlesbykumbi/orchard/pkg/db/dbtest"
	"github.com/doodlesbykumbi/orchard/pkg/server/store"
	gormstore "github.com/doodlesbykumbi/orchard/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/orchard/pkg/trees"
)

const orchardYAML = `
trees:
  - country: Chile
    age_years: 120
    description: araucaria
    branches:
      - length: 25
        leaf_count: 10
      - length: 5
        leaf_count: 2
  - country: Peru
    age_years: 3
`

func newTestService(t *testing.T) *trees.Service {
	t.Helper()
	return trees.NewService(gormstore.NewTreesStore(dbtest.SQLite(t)), nil, nil, nil)
}

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(orchardYAML))
	require.NoError(t, err)

	require.Len(t, doc.Trees, 2)
	assert.Equal(t, "Chile", doc.Trees[0].Country)
	assert.Equal(t, 120, doc.Trees[0].AgeYears)
	require.Len(t, doc.Trees[0].Branches, 2)
	assert.Equal(t, 10, *doc.Trees[0].Branches[0].LeafCount)
	assert.Empty(t, doc.Trees[1].Branches)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader("trees:\n  - country: Chile\n    height: 30\n"))
	assert.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	doc, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, doc.Trees)
}

func TestLoad(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	result, err := NewLoader(svc, nil).LoadFromReader(ctx, strings.NewReader(orchardYAML))
	require.NoError(t, err)

	require.Len(t, result.Trees, 2)
	assert.False(t, result.DryRun)
	require.NotNil(t, result.Trees[0].ID)
	assert.Len(t, result.Trees[0].Branches, 2)

	stored, err := svc.ListTrees(ctx, store.Page{})
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestLoadIsAllOrNothing(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	doc := `
trees:
  - country: Chile
  - country: Peru
    branches:
      - length: 3
`
	_, err := NewLoader(svc, nil).LoadFromReader(ctx, strings.NewReader(doc))
	require.Error(t, err)
	assert.ErrorIs(t, err, trees.ErrInvalidRequest)
	assert.Contains(t, err.Error(), "trees[1]")

	stored, err := svc.ListTrees(ctx, store.Page{})
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestLoadDryRun(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	result, err := NewLoader(svc, nil).WithDryRun(true).LoadFromReader(ctx, strings.NewReader(orchardYAML))
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Len(t, result.Trees, 2)

	stored, err := svc.ListTrees(ctx, store.Page{})
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestLoadFile(t *testing.T) {
	svc := newTestService(t)
	path := filepath.Join(t.TempDir(), "orchard.yml")
	require.NoError(t, os.WriteFile(path, []byte(orchardYAML), 0o600))

	result, err := NewLoader(svc, nil).LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, result.Trees, 2)

	_, err = NewLoader(svc, nil).LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestLoadWithAuditDatabase(t *testing.T) {
	database := dbtest.SQLite(t)
	sqlDB, err := database.DB()
	require.NoError(t, err)

	recorder := audit.NewRecorder(nil, audit.NewStoreWithDB(sqlDB), nil)
	svc := trees.NewService(gormstore.NewTreesStore(database), nil, recorder, nil)

	done := make(chan error, 1)
	go func() {
		_, err := NewLoader(svc, nil).LoadFromReader(context.Background(), strings.NewReader(orchardYAML))
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("load did not finish")
	}

	var count int64
	require.NoError(t, database.Table("audit_messages").Where("msgid = ?", "tree-create").Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestFailedLoadRecordsNoSuccess(t *testing.T) {
	var buf bytes.Buffer
	recorder := audit.NewRecorder(audit.NewLogger(&buf), nil, nil)
	svc := trees.NewService(gormstore.NewTreesStore(dbtest.SQLite(t)), nil, recorder, nil)

	doc := `
trees:
  - country: Chile
    branches:
      - length: 25
        leaf_count: 10
  - country: Peru
    branches:
      - length: 3
`
	_, err := NewLoader(svc, nil).LoadFromReader(context.Background(), strings.NewReader(doc))
	require.Error(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Contains(t, line, "tree-create")
		assert.Contains(t, line, `result="failure"`)
		assert.NotContains(t, line, `result="success"`)
	}
	assert.Contains(t, lines[0], "transaction rolled back")
}
