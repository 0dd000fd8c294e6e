// Package cli implements the courseforge command line interface.
//
// Commands operate on course documents (JSON or YAML files) and on a
// local SQLite backend: validate checks a document against the course
// schema, tree renders its denormalized outline, seed imports it into
// a database, and apply runs an editing scenario through the engine
// with autosave against that database.
//
// All commands share the text/json output convention: text goes to
// stdout for humans, json wraps results in a response envelope for
// scripting, and diagnostics stay on stderr.
package cli
