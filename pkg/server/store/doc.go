// Package store provides storage abstractions for the orchard server.
//
// This package defines interfaces for database operations, allowing the
// aggregate logic and the endpoints to be decoupled from the specific
// database implementation.
//
// # Available Stores
//
//   - TreesStore: Tree aggregate and Branch persistence
//   - HealthStore: Database connectivity checks
//
// # Usage
//
//	trees := gorm.NewTreesStore(db)
//	tree, err := trees.FindTree(ctx, 42)
//	if err != nil {
//	    if errors.Is(err, store.ErrTreeNotFound) {
//	        // Handle not found
//	    }
//	}
package store
