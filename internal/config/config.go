// Package config provides repository configuration management,
// including reading the backport configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFileName is the config file looked up at the repository root.
const DefaultFileName = ".backport.json"

// Config represents the repository backport configuration
type Config struct {
	Team                       *string `json:"team,omitempty"`
	Repo                       *string `json:"repo,omitempty"`
	DefaultBranch              *string `json:"defaultBranch,omitempty"`
	FixCommitMsg               *bool   `json:"fixCommitMsg,omitempty"`
	RequireVersionInBranchName *bool   `json:"requireVersionInBranchName,omitempty"`
	DraftPr                    *bool   `json:"draftPr,omitempty"`
	CheckSha                   *string `json:"checkSha,omitempty"`
}

// GetConfig reads the configuration file at the repository root.
// A missing file yields the default configuration.
func GetConfig(repoRoot string) (*Config, error) {
	return GetConfigFromPath(filepath.Join(repoRoot, DefaultFileName))
}

// GetConfigFromPath reads the configuration from an explicit path.
func GetConfigFromPath(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		// Config doesn't exist - return default
		return &Config{}, nil
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse backport config: %w", err)
	}

	return &config, nil
}

// GetDefaultBranch returns the configured primary development branch, or "main".
func (c *Config) GetDefaultBranch() string {
	if c.DefaultBranch != nil && *c.DefaultBranch != "" {
		return *c.DefaultBranch
	}
	return "main"
}

// GetFixCommitMsg returns whether #NNNN issue references are rewritten to
// GH-NNNN in backported commit messages. Defaults to true.
func (c *Config) GetFixCommitMsg() bool {
	if c.FixCommitMsg != nil {
		return *c.FixCommitMsg
	}
	return true
}

// GetRequireVersionInBranchName returns whether target branches must carry a
// version token in their name. Defaults to true.
func (c *Config) GetRequireVersionInBranchName() bool {
	if c.RequireVersionInBranchName != nil {
		return *c.RequireVersionInBranchName
	}
	return true
}

// GetDraftPr returns whether created pull requests are drafts. Defaults to false.
func (c *Config) GetDraftPr() bool {
	if c.DraftPr != nil {
		return *c.DraftPr
	}
	return false
}

// GetTeam returns the configured GitHub organization, or empty when it should
// be derived from the remote URL.
func (c *Config) GetTeam() string {
	if c.Team != nil {
		return *c.Team
	}
	return ""
}

// GetRepo returns the configured GitHub repository name, or empty when it
// should be derived from the remote URL.
func (c *Config) GetRepo() string {
	if c.Repo != nil {
		return *c.Repo
	}
	return ""
}

// GetCheckSha returns a commit that must exist in the repository before any
// operation runs, catching invocations from the wrong clone. Empty disables
// the check.
func (c *Config) GetCheckSha() string {
	if c.CheckSha != nil {
		return *c.CheckSha
	}
	return ""
}
