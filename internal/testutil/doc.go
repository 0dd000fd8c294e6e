// Package testutil provides shared test doubles: an in-memory fake of
// the persistence collaborator with scripted failures, and canned
// course trees for seeding states.
package testutil
