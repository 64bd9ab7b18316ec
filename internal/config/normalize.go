package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeConverter(); err != nil {
		return err
	}
	c.normalizeSelection()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeConverter() error {
	c.Converter.Binary = strings.TrimSpace(c.Converter.Binary)
	if c.Converter.Binary == "" {
		c.Converter.Binary = defaultConverterBinary
	}
	if path := strings.TrimSpace(c.Converter.Path); path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return fmt.Errorf("converter.path: %w", err)
		}
		c.Converter.Path = expanded
	} else {
		c.Converter.Path = ""
	}
	dirs := make([]string, 0, len(c.Converter.SearchDirs))
	for _, dir := range c.Converter.SearchDirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		expanded, err := expandPath(dir)
		if err != nil {
			return fmt.Errorf("converter.search_dirs: %w", err)
		}
		dirs = append(dirs, expanded)
	}
	c.Converter.SearchDirs = dirs

	c.Converter.FileVersion = strings.TrimSpace(c.Converter.FileVersion)
	c.Converter.ConvertedExt = normalizeExt(c.Converter.ConvertedExt, defaultConvertedExt)
	c.Converter.MasterExt = normalizeExt(c.Converter.MasterExt, defaultMasterExt)
	if c.Converter.ConvertTimeout <= 0 {
		c.Converter.ConvertTimeout = defaultConvertTimeout
	}
	if c.Converter.AssembleTimeout <= 0 {
		c.Converter.AssembleTimeout = defaultAssembleTimeout
	}
	return nil
}

func (c *Config) normalizeSelection() {
	exts := make([]string, 0, len(c.Selection.Extensions))
	seen := map[string]struct{}{}
	for _, ext := range c.Selection.Extensions {
		normalized := normalizeExt(ext, "")
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = defaultExtensions()
	}
	c.Selection.Extensions = exts

	excludes := make([]string, 0, len(c.Selection.Excludes))
	for _, pattern := range c.Selection.Excludes {
		pattern = strings.TrimSpace(pattern)
		if pattern != "" {
			excludes = append(excludes, pattern)
		}
	}
	c.Selection.Excludes = excludes
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.TransferRetries < 1 {
		c.Workflow.TransferRetries = defaultTransferRetries
	}
	if c.Workflow.TransferRetryDelay < 0 {
		c.Workflow.TransferRetryDelay = defaultTransferRetryDelay
	}
	if c.Workflow.MinFreeGiB < 0 {
		c.Workflow.MinFreeGiB = defaultMinFreeGiB
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeExt(ext, fallback string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return fallback
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
