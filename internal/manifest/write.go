package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Write persists the manifest as a text file the converter consumes: one path
// per line, CRLF terminated, UTF-16LE with BOM. The vendor tool reads file
// lists through the Windows text APIs and silently drops non-ASCII paths from
// UTF-8 input.
func Write(m *Manifest, path string) error {
	if m == nil {
		return fmt.Errorf("manifest is nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	var body strings.Builder
	for _, entry := range m.Paths {
		body.WriteString(entry)
		body.WriteString("\r\n")
	}

	encoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	encoded, _, err := transform.String(encoder, body.String())
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if err := os.WriteFile(path, []byte(encoded), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Read parses a manifest file written by Write, mainly for inspection and
// tests.
func Read(name, path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	decoded, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	var paths []string
	for _, line := range strings.Split(string(decoded), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		paths = append(paths, line)
	}
	return New(name, paths)
}
