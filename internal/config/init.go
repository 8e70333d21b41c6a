package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Config{
		Site: SiteConfig{
			Title:       "My Blog",
			Description: "Notes and tutorials",
			Author:      "Author Name",
			BaseURL:     "https://example.github.io/blog",
		},
		Content: ContentConfig{
			Dir:     "./posts",
			Include: []string{"**/*.md"},
			Exclude: []string{"**/drafts/**"},
		},
		Output: OutputConfig{
			Dir:           "./public",
			Feed:          true,
			CategoryPages: true,
		},
		Publish: PublishConfig{
			PrimaryBranch: "main",
			Pages: &PagesTarget{
				Repo:   "https://github.com/example/blog.git",
				Branch: "gh-pages",
				Token:  "${PRESSROOM_GIT_TOKEN}",
			},
			Host: &HostTarget{
				APIURL: "https://api.statichost.example",
				SiteID: "YOUR_SITE_ID",
				Token:  "${PRESSROOM_HOST_TOKEN}",
			},
		},
		Preview: PreviewConfig{Dir: "./preview"},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}
