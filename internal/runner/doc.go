// Package runner orchestrates a batch run end to end: source discovery and
// manifest generation, per-group conversion, master assembly, and publication
// of the results. Each stage transition is persisted to the run store before
// and after the stage executes, so an interrupted batch leaves an accurate
// trail. A file lock guarantees a single batch per machine at a time.
package runner
