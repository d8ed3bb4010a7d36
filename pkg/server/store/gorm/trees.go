package gorm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/orchard/pkg/model"
	"github.com/doodlesbykumbi/orchard/pkg/server/store"
)

// Ensure TreesStore implements store.TreesStore
var _ store.TreesStore = (*TreesStore)(nil)

// TreesStore implements store.TreesStore using GORM
type TreesStore struct {
	db   *gorm.DB
	inTx bool
}

// NewTreesStore creates a new TreesStore
func NewTreesStore(db *gorm.DB) *TreesStore {
	return &TreesStore{db: db}
}

// Transaction wraps operations in a database transaction.
func (s *TreesStore) Transaction(ctx context.Context, fn func(store.TreesStore) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TreesStore{db: tx, inTx: true})
	})
}

// FindTree loads a tree and its branches.
func (s *TreesStore) FindTree(ctx context.Context, id int64) (*store.Tree, error) {
	return s.loadTree(s.db.WithContext(ctx), id, false)
}

// FindTreeForUpdate loads a tree and its branches, locking the tree row.
func (s *TreesStore) FindTreeForUpdate(ctx context.Context, id int64) (*store.Tree, error) {
	return s.loadTree(s.db.WithContext(ctx), id, true)
}

func (s *TreesStore) loadTree(db *gorm.DB, id int64, lock bool) (*store.Tree, error) {
	query := db
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row model.Tree
	if err := query.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrTreeNotFound
		}
		return nil, err
	}

	if err := db.Where("tree_id = ?", id).Order("id").Find(&row.Branches).Error; err != nil {
		return nil, fmt.Errorf("failed to load branches of tree %d: %w", id, err)
	}

	tree := toStoreTree(row)
	return &tree, nil
}

// ListTrees returns trees ordered by id with their branches.
func (s *TreesStore) ListTrees(ctx context.Context, page store.Page) ([]store.Tree, error) {
	var rows []model.Tree
	query := paginate(s.db.WithContext(ctx), page).
		Preload("Branches", func(db *gorm.DB) *gorm.DB {
			return db.Order("branches.id")
		}).
		Order("id")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	trees := make([]store.Tree, 0, len(rows))
	for _, row := range rows {
		trees = append(trees, toStoreTree(row))
	}
	return trees, nil
}

// SaveTree inserts or updates the tree row and cascades to its branches.
func (s *TreesStore) SaveTree(ctx context.Context, tree *store.Tree) error {
	return s.Transaction(ctx, func(txStore store.TreesStore) error {
		return txStore.(*TreesStore).saveTree(ctx, tree)
	})
}

func (s *TreesStore) saveTree(ctx context.Context, tree *store.Tree) error {
	db := s.db.WithContext(ctx)

	if tree.ID == nil {
		row := model.Tree{
			Country:     tree.Country,
			AgeYears:    tree.AgeYears,
			Description: tree.Description,
		}
		if err := db.Omit(clause.Associations).Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create tree: %w", err)
		}
		tree.ID = &row.ID
	} else {
		result := db.Model(&model.Tree{}).Where("id = ?", *tree.ID).Updates(map[string]interface{}{
			"country":     tree.Country,
			"age_years":   tree.AgeYears,
			"description": tree.Description,
		})
		if result.Error != nil {
			return fmt.Errorf("failed to update tree %d: %w", *tree.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return store.ErrTreeNotFound
		}
	}

	for i := range tree.Branches {
		branch := &tree.Branches[i]
		treeID := *tree.ID
		branch.TreeID = &treeID
		if err := s.saveBranch(ctx, branch); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTree removes the tree and its branches. Deleting a missing tree is
// not an error.
func (s *TreesStore) DeleteTree(ctx context.Context, id int64) error {
	return s.Transaction(ctx, func(txStore store.TreesStore) error {
		db := txStore.(*TreesStore).db.WithContext(ctx)
		// Explicit for databases running without foreign key enforcement.
		if err := db.Where("tree_id = ?", id).Delete(&model.Branch{}).Error; err != nil {
			return fmt.Errorf("failed to delete branches of tree %d: %w", id, err)
		}
		if err := db.Where("id = ?", id).Delete(&model.Tree{}).Error; err != nil {
			return fmt.Errorf("failed to delete tree %d: %w", id, err)
		}
		return nil
	})
}

// FindBranch retrieves a single branch.
func (s *TreesStore) FindBranch(ctx context.Context, id int64) (*store.Branch, error) {
	var row model.Branch
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrBranchNotFound
		}
		return nil, err
	}
	branch := toStoreBranch(row)
	return &branch, nil
}

// ListBranches returns branches ordered by id.
func (s *TreesStore) ListBranches(ctx context.Context, page store.Page) ([]store.Branch, error) {
	var rows []model.Branch
	if err := paginate(s.db.WithContext(ctx), page).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	branches := make([]store.Branch, 0, len(rows))
	for _, row := range rows {
		branches = append(branches, toStoreBranch(row))
	}
	return branches, nil
}

// SaveBranch inserts or updates a single branch.
func (s *TreesStore) SaveBranch(ctx context.Context, branch *store.Branch) error {
	return s.saveBranch(ctx, branch)
}

func (s *TreesStore) saveBranch(ctx context.Context, branch *store.Branch) error {
	if branch.TreeID == nil {
		return fmt.Errorf("branch has no owning tree")
	}
	db := s.db.WithContext(ctx)

	if branch.ID == nil {
		row := model.Branch{
			Length:    intValue(branch.Length),
			LeafCount: intValue(branch.LeafCount),
			TreeID:    *branch.TreeID,
		}
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create branch: %w", err)
		}
		branch.ID = &row.ID
		return nil
	}

	result := db.Model(&model.Branch{}).Where("id = ?", *branch.ID).Updates(map[string]interface{}{
		"length":     intValue(branch.Length),
		"leaf_count": intValue(branch.LeafCount),
		"tree_id":    *branch.TreeID,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update branch %d: %w", *branch.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrBranchNotFound
	}
	return nil
}

// DeleteBranch removes a single branch. Deleting a missing branch is not an
// error.
func (s *TreesStore) DeleteBranch(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Branch{}).Error
}

func paginate(db *gorm.DB, page store.Page) *gorm.DB {
	if page.Limit > 0 {
		db = db.Limit(page.Limit)
	}
	if page.Offset > 0 {
		db = db.Offset(page.Offset)
	}
	return db
}

func toStoreTree(row model.Tree) store.Tree {
	id := row.ID
	tree := store.Tree{
		ID:          &id,
		Country:     row.Country,
		AgeYears:    row.AgeYears,
		Description: row.Description,
		Branches:    make([]store.Branch, 0, len(row.Branches)),
	}
	for _, b := range row.Branches {
		tree.Branches = append(tree.Branches, toStoreBranch(b))
	}
	return tree
}

func toStoreBranch(row model.Branch) store.Branch {
	id, length, leafCount, treeID := row.ID, row.Length, row.LeafCount, row.TreeID
	return store.Branch{
		ID:        &id,
		Length:    &length,
		LeafCount: &leafCount,
		TreeID:    &treeID,
	}
}

func intValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
