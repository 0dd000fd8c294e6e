// Package backend is the local SQLite course backend.
//
// It implements courseapi.Client, so an engine can run fully offline
// against a file on disk: the CLI and the scenario harness use it as
// the reference implementation of the persistence contract, including
// permanent identifier assignment for placeholders.
//
// Identifiers are SQLite rowids rendered as decimal strings. A tree
// save is one transaction: entities arriving with "tmp_" identifiers
// are inserted, known ones updated, absent ones deleted, and the stored
// tree is returned so the caller can reconcile.
package backend
