// Package db provides database connection utilities.
//
// Connect opens a GORM connection for postgres (postgres://...) or sqlite
// (sqlite://path, file:...?mode=memory) URLs. SQL statement logging follows
// the application log level.
package db
