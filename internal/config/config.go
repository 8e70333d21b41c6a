package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Content ContentConfig `yaml:"content"`
	Renames []Rename      `yaml:"renames,omitempty"`
	Theme   ThemeConfig   `yaml:"theme,omitempty"`
	Output  OutputConfig  `yaml:"output"`
	Publish PublishConfig `yaml:"publish,omitempty"`
	Preview PreviewConfig `yaml:"preview,omitempty"`
	Serve   ServeConfig   `yaml:"serve,omitempty"`
	Daemon  DaemonConfig  `yaml:"daemon,omitempty"`
	Events  EventsConfig  `yaml:"events,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
}

// SiteConfig holds site-wide metadata rendered into every page.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Author      string `yaml:"author,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
}

// ContentConfig describes where source posts live and which files count.
type ContentConfig struct {
	Dir           string   `yaml:"dir"`
	AssetsDir     string   `yaml:"assets_dir,omitempty"`
	Include       []string `yaml:"include,omitempty"` // doublestar globs, relative to dir
	Exclude       []string `yaml:"exclude,omitempty"`
	IncludeDrafts bool     `yaml:"include_drafts,omitempty"`
}

// Rename disambiguates a source filename before rendering. Applied in order,
// before discovery, so no output collision can occur.
type Rename struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// ThemeConfig selects the page templates. Precedence: Repo (cloned during
// provisioning) > Path (local directory) > embedded default.
type ThemeConfig struct {
	Path   string `yaml:"path,omitempty"`
	Repo   string `yaml:"repo,omitempty"`
	Branch string `yaml:"branch,omitempty"`
}

// OutputConfig represents rendered-site output configuration.
type OutputConfig struct {
	Dir           string `yaml:"dir"`
	Feed          bool   `yaml:"feed"`
	CategoryPages bool   `yaml:"category_pages"`
}

// PublishConfig describes the two deploy destinations and the branch that
// gates them. Both targets are optional; publishing requires at least one.
type PublishConfig struct {
	PrimaryBranch string       `yaml:"primary_branch,omitempty"`
	Pages         *PagesTarget `yaml:"pages,omitempty"`
	Host          *HostTarget  `yaml:"host,omitempty"`
}

// PagesTarget is the git-branch mirror (pages-style deployment).
type PagesTarget struct {
	Repo        string `yaml:"repo"`
	Branch      string `yaml:"branch"`
	Token       string `yaml:"token,omitempty"` // usually ${PRESSROOM_GIT_TOKEN}
	Username    string `yaml:"username,omitempty"`
	AuthorName  string `yaml:"author_name,omitempty"`
	AuthorEmail string `yaml:"author_email,omitempty"`
	Timeout     string `yaml:"timeout,omitempty"` // time ceiling for the push step
	CNAME       string `yaml:"cname,omitempty"`   // custom domain file written into the branch
}

// HostTarget is the static-hosting service (HTTP deploy API).
type HostTarget struct {
	APIURL  string `yaml:"api_url"`
	SiteID  string `yaml:"site_id"`
	Token   string `yaml:"token,omitempty"` // usually ${PRESSROOM_HOST_TOKEN}
	Timeout string `yaml:"timeout,omitempty"`
}

// PreviewConfig controls artifact packaging for non-publishing runs.
type PreviewConfig struct {
	Dir   string `yaml:"dir,omitempty"`
	Label string `yaml:"label,omitempty"` // defaults to the trigger branch
}

// ServeConfig controls the local preview server.
type ServeConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// DaemonConfig controls scheduled rebuild mode.
type DaemonConfig struct {
	Interval string `yaml:"interval,omitempty"`
	Publish  bool   `yaml:"publish,omitempty"`
	Addr     string `yaml:"addr,omitempty"`
	DataDir  string `yaml:"data_dir,omitempty"`
}

// EventsConfig enables NATS build/deploy announcements when URL is set.
type EventsConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// HistoryConfig controls the local run-history store.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// TimeoutDuration returns the parsed push time ceiling.
func (p *PagesTarget) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(p.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// TimeoutDuration returns the parsed API deploy ceiling.
func (h *HostTarget) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(h.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// IntervalDuration returns the parsed daemon rebuild interval.
func (d *DaemonConfig) IntervalDuration() time.Duration {
	dur, err := time.ParseDuration(d.Interval)
	if err != nil || dur <= 0 {
		return 30 * time.Minute
	}
	return dur
}

// Enabled reports whether event announcements are configured.
func (e *EventsConfig) Enabled() bool { return e.URL != "" }

// HasTargets reports whether any deploy destination is configured.
func (p *PublishConfig) HasTargets() bool { return p.Pages != nil || p.Host != nil }

// Load loads configuration from the specified file.
//
// A .env/.env.local file is loaded first (without overriding the process
// environment) so ${VAR} references in the YAML can carry secrets.
func Load(configPath string) (*Config, error) {
	loadDotEnv()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables in the YAML content before parsing so
	// secrets never need to live in the file itself.
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv loads .env then .env.local, first hit wins. Existing process
// environment variables are never overwritten.
func loadDotEnv() {
	for _, p := range []string{".env", ".env.local"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err == nil {
			fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", p)
			return
		}
	}
}
