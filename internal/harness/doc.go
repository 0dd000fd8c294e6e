// Package harness runs declarative editing scenarios against the
// course engine.
//
// A scenario is a YAML document: an optional inline starting course,
// then a list of editing steps. Add operations can bind the identifier
// they create to a name, and later steps reference it as $name, so a
// scenario can build structure and then edit it without knowing
// placeholder identifiers in advance. Steps may also inject
// collaborator failures when the runner drives a fake collaborator.
//
// Paired with fixed identifier generation, scenario runs are
// deterministic and their final trees can be compared against golden
// files.
package harness
