// Package runs persists batch executions and their per-file outcomes in
// SQLite.
//
// The Store manages database connections, schema initialization, status
// transitions, and stale-run recovery. Run rows capture progress and the
// master model location; run_files rows record what happened to every
// selected source so publish failures stay visible after the batch finishes.
//
// The database is operational history, not an archive. Schema changes bump
// the version in schema.go; users delete the database to adopt the new
// schema.
package runs
