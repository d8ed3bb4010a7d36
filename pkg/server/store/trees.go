package store

import (
	"context"
	"errors"
)

// ErrTreeNotFound is returned when a tree doesn't exist
var ErrTreeNotFound = errors.New("tree not found")

// ErrBranchNotFound is returned when a branch doesn't exist
var ErrBranchNotFound = errors.New("branch not found")

// Tree is the aggregate root: a tree record and the branches it owns.
// ID is nil until the tree has been persisted.
type Tree struct {
	ID          *int64   `json:"id" yaml:"id,omitempty"`
	Country     string   `json:"country" yaml:"country"`
	AgeYears    int      `json:"ageYears" yaml:"age_years"`
	Description string   `json:"description" yaml:"description"`
	Branches    []Branch `json:"branches" yaml:"branches"`
}

// Branch is a child record owned by exactly one tree. Length and LeafCount
// are nil when a request left them out; TreeID is the owner's identifier and
// is never a pointer to the owning Tree value.
type Branch struct {
	ID        *int64 `json:"id" yaml:"id,omitempty"`
	Length    *int   `json:"length" yaml:"length"`
	LeafCount *int   `json:"leafCount" yaml:"leaf_count"`
	TreeID    *int64 `json:"treeId" yaml:"-"`
}

// Page limits a listing. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// TreesStore abstracts persistence of the tree aggregate.
type TreesStore interface {
	// FindTree loads a tree with its branches.
	// Returns ErrTreeNotFound if the tree doesn't exist.
	FindTree(ctx context.Context, id int64) (*Tree, error)

	// FindTreeForUpdate is FindTree with the tree row locked until the
	// surrounding transaction ends, on dialects that support it.
	FindTreeForUpdate(ctx context.Context, id int64) (*Tree, error)

	// ListTrees returns trees ordered by id, branches included.
	ListTrees(ctx context.Context, page Page) ([]Tree, error)

	// SaveTree inserts the tree when ID is nil and updates it otherwise.
	// Branches in the collection are saved with it: new ones are inserted,
	// existing ones updated, and every branch's TreeID is set to the tree.
	// The tree and its branches get their assigned IDs written back.
	SaveTree(ctx context.Context, tree *Tree) error

	// DeleteTree removes the tree and all of its branches.
	DeleteTree(ctx context.Context, id int64) error

	// FindBranch returns ErrBranchNotFound if the branch doesn't exist.
	FindBranch(ctx context.Context, id int64) (*Branch, error)

	// ListBranches returns branches ordered by id.
	ListBranches(ctx context.Context, page Page) ([]Branch, error)

	// SaveBranch inserts or updates a single branch. TreeID must be set.
	SaveBranch(ctx context.Context, branch *Branch) error

	// DeleteBranch removes a single branch row.
	DeleteBranch(ctx context.Context, id int64) error

	// Transaction runs fn against a store bound to one database transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(TreesStore) error) error
}
