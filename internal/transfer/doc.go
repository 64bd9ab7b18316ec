// Package transfer publishes converted models from per-run staging back to
// their canonical locations with per-file failure isolation: one locked
// destination records a failure and the rest of the batch keeps moving.
package transfer
