// Package manifest selects CAD source files and materializes the file lists
// the external converter consumes.
//
// A manifest is the contract between discovery and conversion: exactly the
// selected files, each once, in sorted order. Files are written UTF-16LE with
// BOM for compatibility with the Windows-native converter.
package manifest
