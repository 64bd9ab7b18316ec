// Package preflight verifies the environment before a batch run mutates
// anything: the converter resolves, directories are writable, and the staging
// volume has room.
package preflight
