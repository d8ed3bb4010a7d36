// Package loader bulk-loads trees from a YAML document.
//
// All trees of a document are created in one transaction. A dry run
// creates them and rolls back, which validates the document against the
// live database.
package loader
