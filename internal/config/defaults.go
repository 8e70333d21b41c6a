package config

// applyDefaults fills unset fields with their documented defaults. Called by
// Load before validation; exported indirectly through Load only.
func (c *Config) applyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = "Untitled Site"
	}
	if c.Content.Dir == "" {
		c.Content.Dir = "./posts"
	}
	if len(c.Content.Include) == 0 {
		c.Content.Include = []string{"**/*.md"}
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "./public"
	}
	if c.Publish.PrimaryBranch == "" {
		c.Publish.PrimaryBranch = "main"
	}
	if c.Publish.Pages != nil {
		if c.Publish.Pages.Branch == "" {
			c.Publish.Pages.Branch = "gh-pages"
		}
		if c.Publish.Pages.Username == "" {
			c.Publish.Pages.Username = "pressroom"
		}
		if c.Publish.Pages.AuthorName == "" {
			c.Publish.Pages.AuthorName = "pressroom"
		}
		if c.Publish.Pages.AuthorEmail == "" {
			c.Publish.Pages.AuthorEmail = "pressroom@localhost"
		}
		if c.Publish.Pages.Timeout == "" {
			c.Publish.Pages.Timeout = "10m"
		}
	}
	if c.Publish.Host != nil && c.Publish.Host.Timeout == "" {
		c.Publish.Host.Timeout = "5m"
	}
	if c.Preview.Dir == "" {
		c.Preview.Dir = "./preview"
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = ":8080"
	}
	if c.Daemon.Interval == "" {
		c.Daemon.Interval = "30m"
	}
	if c.Daemon.Addr == "" {
		c.Daemon.Addr = ":8080"
	}
	if c.Daemon.DataDir == "" {
		c.Daemon.DataDir = "./pressroom-data"
	}
	if c.Events.URL != "" && c.Events.Subject == "" {
		c.Events.Subject = "pressroom.builds"
	}
	if c.Theme.Repo != "" && c.Theme.Branch == "" {
		c.Theme.Branch = "main"
	}
}
