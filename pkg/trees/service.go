package trees

import (
	"context"
	"errors"
	"fmt"

	"github.com/doodlesbykumbi/orchard/pkg/audit"
	"github.com/doodlesbykumbi/orchard/pkg/identity"
	"github.com/doodlesbykumbi/orchard/pkg/logger"
	"github.com/doodlesbykumbi/orchard/pkg/metrics"
	"github.com/doodlesbykumbi/orchard/pkg/server/store"
)

// Service implements every operation on the tree aggregate. Its
// collaborators are passed in; nothing is read from package state.
type Service struct {
	store   store.TreesStore
	log     *logger.Logger
	auditor audit.Auditor
	metrics *metrics.Metrics

	// pending is set on the Service handed to a Transaction callback. Audit
	// events, metrics and result logs wait there until the transaction ends.
	pending *[]outcome
}

// outcome is one recorded operation result.
type outcome struct {
	entity    string // tree or branch
	operation string
	treeID    int64
	branchID  int64
	requestID string
	clientIP  string
	err       error
}

// NewService creates a Service. log, auditor and m may be nil.
func NewService(st store.TreesStore, log *logger.Logger, auditor audit.Auditor, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if auditor == nil {
		auditor = audit.Nop{}
	}
	return &Service{
		store:   st,
		log:     log.With("component", "trees"),
		auditor: auditor,
		metrics: m,
	}
}

// Transaction runs fn with a Service whose operations all share one store
// transaction. The transaction rolls back if fn returns an error.
// Operations that succeeded inside a rolled back transaction are reported
// as failed once it ends.
func (s *Service) Transaction(ctx context.Context, fn func(*Service) error) error {
	if s.pending != nil {
		return fn(s)
	}

	var pending []outcome
	err := s.store.Transaction(ctx, func(tx store.TreesStore) error {
		scoped := *s
		scoped.store = tx
		scoped.pending = &pending
		return fn(&scoped)
	})

	for _, o := range pending {
		if err != nil && o.err == nil {
			o.err = fmt.Errorf("transaction rolled back: %w", err)
		}
		s.emit(o)
	}
	return err
}

// CreateTree persists a new tree together with the branches it carries.
// The tree and its branches must not have ids yet, and every branch needs
// a length and a leaf count.
func (s *Service) CreateTree(ctx context.Context, tree store.Tree) (*store.Tree, error) {
	if err := validateNewTree(tree); err != nil {
		s.recordTree(ctx, "create", 0, err)
		return nil, err
	}

	tree.Branches = append([]store.Branch(nil), tree.Branches...)

	var created *store.Tree
	err := s.store.Transaction(ctx, func(tx store.TreesStore) error {
		if err := tx.SaveTree(ctx, &tree); err != nil {
			return err
		}
		var err error
		created, err = tx.FindTree(ctx, *tree.ID)
		return err
	})
	if err != nil {
		s.recordTree(ctx, "create", 0, err)
		return nil, err
	}

	s.recordTree(ctx, "create", *created.ID, nil)
	return created, nil
}

// GetTree loads a tree with its branches.
func (s *Service) GetTree(ctx context.Context, id int64) (*store.Tree, error) {
	tree, err := s.store.FindTree(ctx, id)
	if err != nil {
		return nil, treeError(id, err)
	}
	return tree, nil
}

// ListTrees returns trees with their branches, ordered by id.
func (s *Service) ListTrees(ctx context.Context, page store.Page) ([]store.Tree, error) {
	return s.store.ListTrees(ctx, page)
}

// UpdateTree overwrites country, age and description of an existing tree.
// The branch collection is left as it is. If the body carries an id it must
// equal id.
func (s *Service) UpdateTree(ctx context.Context, id int64, changes store.Tree) (*store.Tree, error) {
	if err := validateTreeUpdate(id, changes); err != nil {
		s.recordTree(ctx, "update", id, err)
		return nil, err
	}

	var updated *store.Tree
	err := s.store.Transaction(ctx, func(tx store.TreesStore) error {
		current, err := tx.FindTreeForUpdate(ctx, id)
		if err != nil {
			return treeError(id, err)
		}
		current.Country = changes.Country
		current.AgeYears = changes.AgeYears
		current.Description = changes.Description

		row := *current
		row.Branches = nil
		if err := tx.SaveTree(ctx, &row); err != nil {
			return treeError(id, err)
		}
		updated = current
		return nil
	})
	s.recordTree(ctx, "update", id, err)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTree removes a tree and all of its branches. A missing tree is not
// an error.
func (s *Service) DeleteTree(ctx context.Context, id int64) error {
	err := s.store.DeleteTree(ctx, id)
	s.recordTree(ctx, "delete", id, err)
	return err
}

// AddBranch creates a branch owned by the given tree and returns the tree.
func (s *Service) AddBranch(ctx context.Context, treeID int64, branch store.Branch) (*store.Tree, error) {
	if err := validateNewBranch(branch); err != nil {
		s.recordBranch(ctx, "create", treeID, 0, err)
		return nil, err
	}

	var tree *store.Tree
	err := s.store.Transaction(ctx, func(tx store.TreesStore) error {
		if _, err := tx.FindTreeForUpdate(ctx, treeID); err != nil {
			return treeError(treeID, err)
		}
		owner := treeID
		branch.TreeID = &owner
		if err := tx.SaveBranch(ctx, &branch); err != nil {
			return err
		}
		var err error
		tree, err = tx.FindTree(ctx, treeID)
		return err
	})

	var branchID int64
	if branch.ID != nil {
		branchID = *branch.ID
	}
	s.recordBranch(ctx, "create", treeID, branchID, err)
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// GetBranch loads a single branch.
func (s *Service) GetBranch(ctx context.Context, id int64) (*store.Branch, error) {
	branch, err := s.store.FindBranch(ctx, id)
	if err != nil {
		return nil, branchError(id, 0, err)
	}
	return branch, nil
}

// ListBranches returns branches ordered by id.
func (s *Service) ListBranches(ctx context.Context, page store.Page) ([]store.Branch, error) {
	return s.store.ListBranches(ctx, page)
}

// UpdateBranchWithinTree applies patch to the branch of tree treeID whose
// id is patch.ID and returns the updated tree. Only length and leaf count
// change; no branch is created or deleted. The lookup, the change and the
// write happen in one transaction with the tree row locked.
func (s *Service) UpdateBranchWithinTree(ctx context.Context, treeID int64, patch store.Branch) (*store.Tree, error) {
	if err := validateBranchRef(patch); err != nil {
		s.recordBranch(ctx, "update", treeID, 0, err)
		return nil, err
	}
	branchID := *patch.ID

	var tree *store.Tree
	err := s.store.Transaction(ctx, func(tx store.TreesStore) error {
		current, err := tx.FindTreeForUpdate(ctx, treeID)
		if err != nil {
			return treeError(treeID, err)
		}

		i := applyBranchPatch(current, patch)
		if i < 0 {
			return branchError(branchID, treeID, store.ErrBranchNotFound)
		}
		if err := tx.SaveBranch(ctx, &current.Branches[i]); err != nil {
			return branchError(branchID, treeID, err)
		}
		tree = current
		return nil
	})
	s.recordBranch(ctx, "update", treeID, branchID, err)
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// RemoveBranchFromTree deletes the branch ref.ID from tree treeID's
// collection and from the store, and returns the remaining tree. The branch
// must belong to that tree.
func (s *Service) RemoveBranchFromTree(ctx context.Context, treeID int64, ref store.Branch) (*store.Tree, error) {
	if err := validateBranchRef(ref); err != nil {
		s.recordBranch(ctx, "remove", treeID, 0, err)
		return nil, err
	}
	branchID := *ref.ID

	var tree *store.Tree
	err := s.store.Transaction(ctx, func(tx store.TreesStore) error {
		current, err := tx.FindTreeForUpdate(ctx, treeID)
		if err != nil {
			return treeError(treeID, err)
		}

		if _, ok := removeBranch(current, branchID); !ok {
			return branchError(branchID, treeID, store.ErrBranchNotFound)
		}
		if err := tx.DeleteBranch(ctx, branchID); err != nil {
			return err
		}
		tree, err = tx.FindTree(ctx, treeID)
		return err
	})
	s.recordBranch(ctx, "remove", treeID, branchID, err)
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// DeleteBranch removes a branch by id regardless of its tree. A missing
// branch is not an error.
func (s *Service) DeleteBranch(ctx context.Context, id int64) error {
	var treeID int64
	err := s.store.Transaction(ctx, func(tx store.TreesStore) error {
		branch, err := tx.FindBranch(ctx, id)
		if errors.Is(err, store.ErrBranchNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		treeID = *branch.TreeID
		return tx.DeleteBranch(ctx, id)
	})
	s.recordBranch(ctx, "delete", treeID, id, err)
	return err
}

func treeError(id int64, err error) error {
	if errors.Is(err, store.ErrTreeNotFound) {
		return &NotFoundError{Entity: "tree", ID: id, Cause: store.ErrTreeNotFound}
	}
	return err
}

func branchError(id, treeID int64, err error) error {
	if errors.Is(err, store.ErrBranchNotFound) {
		return &NotFoundError{Entity: "branch", ID: id, TreeID: treeID, Cause: store.ErrBranchNotFound}
	}
	return err
}

func (s *Service) recordTree(ctx context.Context, operation string, treeID int64, err error) {
	s.record(ctx, outcome{entity: "tree", operation: operation, treeID: treeID, err: err})
}

func (s *Service) recordBranch(ctx context.Context, operation string, treeID, branchID int64, err error) {
	s.record(ctx, outcome{entity: "branch", operation: operation, treeID: treeID, branchID: branchID, err: err})
}

func (s *Service) record(ctx context.Context, o outcome) {
	o.requestID, o.clientIP = caller(ctx)
	if s.pending != nil {
		*s.pending = append(*s.pending, o)
		return
	}
	s.emit(o)
}

// emit sends o to the audit trail, the metrics and the log. The audit
// message id and the metric label share the entity-operation name.
func (s *Service) emit(o outcome) {
	var errMsg string
	if o.err != nil {
		errMsg = o.err.Error()
	}

	keysAndValues := []interface{}{"tree", o.treeID}
	if o.entity == "branch" {
		s.auditor.Record(audit.BranchEvent{
			Operation:    o.operation,
			TreeID:       o.treeID,
			BranchID:     o.branchID,
			RequestID:    o.requestID,
			ClientIP:     o.clientIP,
			Success:      o.err == nil,
			ErrorMessage: errMsg,
		})
		keysAndValues = append(keysAndValues, "branch", o.branchID)
	} else {
		s.auditor.Record(audit.TreeEvent{
			Operation:    o.operation,
			TreeID:       o.treeID,
			RequestID:    o.requestID,
			ClientIP:     o.clientIP,
			Success:      o.err == nil,
			ErrorMessage: errMsg,
		})
	}
	s.metrics.ObserveOperation(o.entity+"-"+o.operation, o.err)
	s.logResult(o.operation+" "+o.entity, o.err, append(keysAndValues, "request", o.requestID)...)
}

func caller(ctx context.Context) (requestID, clientIP string) {
	id, ok := identity.Get(ctx)
	if !ok {
		return "", "-"
	}
	return id.RequestID, id.ClientIPString()
}
