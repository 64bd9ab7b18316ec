package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"federate/internal/config"
)

// Master describes the assembled model a plan produces.
type Master struct {
	// Name is the master model file name without extension.
	Name string `yaml:"name"`
	// OutputDir overrides paths.output_dir from the tool configuration.
	OutputDir string `yaml:"output_dir"`
}

// Group selects the CAD files of one source folder for conversion.
type Group struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	// Extensions overrides the configured default selection when non-empty.
	Extensions []string `yaml:"extensions"`
	Excludes   []string `yaml:"excludes"`
	// Recursive inherits the configured default when omitted.
	Recursive *bool `yaml:"recursive"`
}

// Plan is the YAML batch plan document: the master model plus the folder
// groups federated into it.
type Plan struct {
	Master Master  `yaml:"master"`
	Groups []Group `yaml:"groups"`
}

// ResolvedGroup is a Group with configuration defaults applied and paths
// made absolute.
type ResolvedGroup struct {
	Name       string
	Source     string
	Extensions []string
	Excludes   []string
	Recursive  bool
}

// Resolved is a plan ready for execution.
type Resolved struct {
	MasterName string
	OutputDir  string
	Groups     []ResolvedGroup
}

// Load reads and parses a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	return &p, nil
}

// Resolve applies configuration defaults, normalizes paths, and validates the
// plan. Source directories must exist at resolve time.
func (p *Plan) Resolve(cfg *config.Config) (*Resolved, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if len(p.Groups) == 0 {
		return nil, fmt.Errorf("plan has no groups")
	}

	masterName := strings.TrimSpace(p.Master.Name)
	if masterName == "" {
		return nil, fmt.Errorf("master.name must be set")
	}
	if ext := filepath.Ext(masterName); ext != "" {
		masterName = strings.TrimSuffix(masterName, ext)
	}

	outputDir := strings.TrimSpace(p.Master.OutputDir)
	if outputDir == "" {
		outputDir = cfg.Paths.OutputDir
	}
	outputDir, err := config.ExpandPath(outputDir)
	if err != nil {
		return nil, fmt.Errorf("master.output_dir: %w", err)
	}

	resolved := &Resolved{
		MasterName: masterName,
		OutputDir:  outputDir,
		Groups:     make([]ResolvedGroup, 0, len(p.Groups)),
	}

	seen := map[string]struct{}{}
	for i, group := range p.Groups {
		name := strings.TrimSpace(group.Name)
		if name == "" {
			return nil, fmt.Errorf("groups[%d]: name must be set", i)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("groups[%d]: duplicate group name %q", i, name)
		}
		seen[name] = struct{}{}

		source := strings.TrimSpace(group.Source)
		if source == "" {
			return nil, fmt.Errorf("group %q: source must be set", name)
		}
		source, err := config.ExpandPath(source)
		if err != nil {
			return nil, fmt.Errorf("group %q: source: %w", name, err)
		}
		info, err := os.Stat(source)
		if err != nil {
			return nil, fmt.Errorf("group %q: source %q: %w", name, source, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("group %q: source %q is not a directory", name, source)
		}

		extensions := normalizeExtensions(group.Extensions)
		if len(extensions) == 0 {
			extensions = append([]string{}, cfg.Selection.Extensions...)
		}
		excludes := append([]string{}, cfg.Selection.Excludes...)
		for _, pattern := range group.Excludes {
			if pattern = strings.TrimSpace(pattern); pattern != "" {
				excludes = append(excludes, pattern)
			}
		}
		recursive := cfg.Selection.Recursive
		if group.Recursive != nil {
			recursive = *group.Recursive
		}

		resolved.Groups = append(resolved.Groups, ResolvedGroup{
			Name:       name,
			Source:     source,
			Extensions: extensions,
			Excludes:   excludes,
			Recursive:  recursive,
		})
	}

	return resolved, nil
}

// MasterPath returns the canonical location of the assembled master model.
func (r *Resolved) MasterPath(masterExt string) string {
	return filepath.Join(r.OutputDir, r.MasterName+masterExt)
}

func normalizeExtensions(values []string) []string {
	out := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, value := range values {
		ext := strings.ToLower(strings.TrimSpace(value))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}
