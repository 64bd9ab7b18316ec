// Package converter wraps the vendor conversion executable behind a small
// client with an injectable executor.
//
// The binary is treated as fully opaque: invocations hand it a manifest file
// and an output location, enforce timeouts through context deadlines, and
// pair produced model files back to their sources by base name. Nothing here
// understands the model formats themselves.
package converter
