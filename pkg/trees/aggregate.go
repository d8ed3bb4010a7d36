package trees

import "github.com/doodlesbykumbi/orchard/pkg/server/store"

// applyBranchPatch overwrites length and leaf count of the first branch in
// tree whose id equals patch.ID and returns its index, or -1 when no branch
// matches. Nil patch values leave the field unchanged. Later branches with
// the same id are not touched.
func applyBranchPatch(tree *store.Tree, patch store.Branch) int {
	if patch.ID == nil {
		return -1
	}
	for i := range tree.Branches {
		branch := &tree.Branches[i]
		if branch.ID == nil || *branch.ID != *patch.ID {
			continue
		}
		if patch.Length != nil {
			length := *patch.Length
			branch.Length = &length
		}
		if patch.LeafCount != nil {
			leafCount := *patch.LeafCount
			branch.LeafCount = &leafCount
		}
		return i
	}
	return -1
}

// removeBranch drops the first branch with the given id from the tree's
// collection, keeping the order of the others.
func removeBranch(tree *store.Tree, id int64) (store.Branch, bool) {
	for i, branch := range tree.Branches {
		if branch.ID == nil || *branch.ID != id {
			continue
		}
		tree.Branches = append(tree.Branches[:i:i], tree.Branches[i+1:]...)
		return branch, true
	}
	return store.Branch{}, false
}
