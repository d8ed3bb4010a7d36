package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/orchard/pkg/logger"
	"github.com/doodlesbykumbi/orchard/pkg/server/store"
	"github.com/doodlesbykumbi/orchard/pkg/trees"
)

// Document is the bulk load file format.
//
//	trees:
//	  - country: Chile
//	    age_years: 120
//	    description: araucaria
//	    branches:
//	      - length: 25
//	        leaf_count: 10
type Document struct {
	Trees []store.Tree `yaml:"trees"`
}

// Result contains the trees created by a load.
type Result struct {
	Trees  []store.Tree
	DryRun bool
}

var errDryRunRollback = errors.New("dry run rollback")

// Loader creates the trees of a Document through the tree service.
type Loader struct {
	svc    *trees.Service
	log    *logger.Logger
	dryRun bool
}

// NewLoader creates a new Loader.
func NewLoader(svc *trees.Service, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{svc: svc, log: log}
}

// WithDryRun sets whether to validate only without keeping changes.
func (l *Loader) WithDryRun(dryRun bool) *Loader {
	l.dryRun = dryRun
	return l
}

// Parse decodes a Document. Unknown keys are rejected.
func Parse(r io.Reader) (*Document, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, err
	}
	return &doc, nil
}

// LoadFile parses and loads the file at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return l.LoadFromReader(ctx, f)
}

// LoadFromReader parses and loads a Document from an io.Reader.
func (l *Loader) LoadFromReader(ctx context.Context, r io.Reader) (*Result, error) {
	doc, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse trees: %w", err)
	}
	return l.Load(ctx, doc)
}

// Load creates every tree of doc in a single transaction. Either all trees
// are created or none are.
func (l *Loader) Load(ctx context.Context, doc *Document) (*Result, error) {
	result := &Result{DryRun: l.dryRun}

	err := l.svc.Transaction(ctx, func(tx *trees.Service) error {
		for i, tree := range doc.Trees {
			created, err := tx.CreateTree(ctx, tree)
			if err != nil {
				return fmt.Errorf("trees[%d]: %w", i, err)
			}
			result.Trees = append(result.Trees, *created)
		}

		if l.dryRun {
			return errDryRunRollback
		}
		return nil
	})

	if errors.Is(err, errDryRunRollback) {
		l.log.Info("dry run: trees are valid", "count", len(result.Trees))
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	l.log.Info("loaded trees", "count", len(result.Trees))
	return result, nil
}
