// Package content defines the course builder's entity model.
//
// Entities exist in two shapes:
//
//   - Flat (normalized): Course, Module, Lesson, Resource. Each child
//     entity carries a parent-reference field and an Order field. This
//     is the shape held by the store.
//   - Nested (denormalized): CourseTree, ModuleTree, LessonTree,
//     ResourceTree. This is the wire format exchanged with the content
//     backend and the read-only view handed to consumers.
//
// The package also owns placeholder identifier generation. Entities
// created locally before the backend has seen them get a "tmp_"-prefixed
// UUIDv7 identifier; IsTempID distinguishes these from permanent,
// server-issued identifiers. Reconciliation rewrites placeholder
// identifiers to permanent ones after a successful round-trip.
package content
