package trees

import (
	"fmt"

	"github.com/doodlesbykumbi/orchard/pkg/server/store"
)

func validateNewTree(tree store.Tree) error {
	if tree.ID != nil {
		return &ValidationError{Field: "id", Reason: "must be absent on creation"}
	}
	for i, branch := range tree.Branches {
		if err := validateNewBranch(branch); err != nil {
			verr := err.(*ValidationError)
			verr.Field = fmt.Sprintf("branches[%d].%s", i, verr.Field)
			return verr
		}
	}
	return nil
}

func validateNewBranch(branch store.Branch) error {
	if branch.ID != nil {
		return &ValidationError{Field: "id", Reason: "must be absent on creation"}
	}
	if branch.Length == nil {
		return &ValidationError{Field: "length", Reason: "is required"}
	}
	if branch.LeafCount == nil {
		return &ValidationError{Field: "leafCount", Reason: "is required"}
	}
	return nil
}

func validateTreeUpdate(id int64, tree store.Tree) error {
	if tree.ID != nil && *tree.ID != id {
		return &ValidationError{Field: "id", Reason: fmt.Sprintf("%d does not match path id %d", *tree.ID, id)}
	}
	return nil
}

func validateBranchRef(branch store.Branch) error {
	if branch.ID == nil {
		return &ValidationError{Field: "id", Reason: "is required"}
	}
	return nil
}
