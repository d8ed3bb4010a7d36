// Package model defines the database models for orchard.
//
// # Core Models
//
//   - Tree: aggregate root (country, age, description)
//   - Branch: child of exactly one Tree, linked by tree_id
//   - AuditMessage: persisted audit events
//
// # Database Schema
//
//   - trees: one row per Tree
//   - branches: one row per Branch, tree_id references trees(id) ON DELETE CASCADE
//   - audit_messages: RFC5424 audit events (optional)
package model
