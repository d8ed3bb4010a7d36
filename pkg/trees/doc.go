// Package trees implements the tree aggregate: a Tree and the Branches it
// owns.
//
// Besides plain create/read/update/delete, the Service offers two partial
// updates of the owned collection:
//
//   - UpdateBranchWithinTree replaces length and leaf count of one branch,
//     matched by id inside the tree's collection (first match wins)
//   - RemoveBranchFromTree drops one branch from the collection and deletes
//     its row
//
// Both run in a single store transaction with the tree row locked, so a
// concurrent reader never sees a half-applied change.
//
// Errors match ErrInvalidRequest or ErrNotFound with errors.Is.
package trees
