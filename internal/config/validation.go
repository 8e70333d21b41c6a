package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Validate checks structural consistency of the configuration. Defaults must
// already be applied.
func (c *Config) Validate() error {
	if err := c.validateRenames(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDurations(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRenames() error {
	seen := make(map[string]struct{}, len(c.Renames))
	for i, r := range c.Renames {
		if r.From == "" || r.To == "" {
			return fmt.Errorf("renames[%d]: from and to are both required", i)
		}
		if r.From == r.To {
			return fmt.Errorf("renames[%d]: from and to are identical: %s", i, r.From)
		}
		if filepath.IsAbs(r.From) || filepath.IsAbs(r.To) {
			return fmt.Errorf("renames[%d]: paths must be relative to content.dir", i)
		}
		if strings.Contains(r.From, "..") || strings.Contains(r.To, "..") {
			return fmt.Errorf("renames[%d]: paths must not escape content.dir", i)
		}
		if _, dup := seen[r.From]; dup {
			return fmt.Errorf("renames[%d]: duplicate source %s", i, r.From)
		}
		seen[r.From] = struct{}{}
	}
	return nil
}

func (c *Config) validatePublish() error {
	if p := c.Publish.Pages; p != nil {
		if p.Repo == "" {
			return fmt.Errorf("publish.pages.repo is required when pages target is configured")
		}
		if p.Branch == "" {
			return fmt.Errorf("publish.pages.branch is required when pages target is configured")
		}
	}
	if h := c.Publish.Host; h != nil {
		if h.APIURL == "" {
			return fmt.Errorf("publish.host.api_url is required when host target is configured")
		}
		if h.SiteID == "" {
			return fmt.Errorf("publish.host.site_id is required when host target is configured")
		}
	}
	return nil
}

func (c *Config) validatePaths() error {
	out, err := filepath.Abs(c.Output.Dir)
	if err != nil {
		return fmt.Errorf("resolve output.dir: %w", err)
	}
	content, err := filepath.Abs(c.Content.Dir)
	if err != nil {
		return fmt.Errorf("resolve content.dir: %w", err)
	}
	// The output directory is deleted and regenerated on every run; refusing
	// nesting protects the sources from the clean step.
	if out == content || strings.HasPrefix(content+string(filepath.Separator), out+string(filepath.Separator)) {
		return fmt.Errorf("content.dir must not live inside output.dir (%s)", c.Output.Dir)
	}
	return nil
}

func (c *Config) validateDurations() error {
	check := func(field, value string) error {
		if value == "" {
			return nil
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %s: %w", field, value, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid %s: must be positive", field)
		}
		return nil
	}
	if c.Publish.Pages != nil {
		if err := check("publish.pages.timeout", c.Publish.Pages.Timeout); err != nil {
			return err
		}
	}
	if c.Publish.Host != nil {
		if err := check("publish.host.timeout", c.Publish.Host.Timeout); err != nil {
			return err
		}
	}
	return check("daemon.interval", c.Daemon.Interval)
}
