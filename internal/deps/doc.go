// Package deps resolves and reports the external executables federate
// orchestrates, chiefly the vendor conversion tool.
package deps
