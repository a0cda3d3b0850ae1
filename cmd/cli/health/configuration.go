package health

import "strings"

const (
	defaultRepositoryPathConstant          = "."
	defaultThresholdDaysConstant           = 14
	defaultTrunkNameConstant               = "master"
	configurationKeySeparatorConstant      = "."
	configurationRepositoryPathKeyConstant = "repository_path"
	configurationThresholdDaysKeyConstant  = "num_days"
	configurationTrunkKeyConstant          = "trunk"
	configurationIgnoreBranchesKeyConstant = "ignore_branches"
	configurationNoIgnoreKeyConstant       = "no_ignore"
	configurationRemoteKeyConstant         = "remote"
	configurationAllRemotesKeyConstant     = "all_remotes"
	configurationBadOnlyKeyConstant        = "bad_only"
	configurationNoColorKeyConstant        = "no_color"
	configurationDeleteKeyConstant         = "delete"
	ignoredBranchesListSeparatorConstant   = ","
)

// CommandConfiguration captures configuration values for the branch health command.
type CommandConfiguration struct {
	RepositoryPath  string   `mapstructure:"repository_path"`
	ThresholdDays   int      `mapstructure:"num_days"`
	TrunkName       string   `mapstructure:"trunk"`
	IgnoredBranches []string `mapstructure:"ignore_branches"`
	NoIgnore        bool     `mapstructure:"no_ignore"`
	RemoteName      string   `mapstructure:"remote"`
	AllRemotes      bool     `mapstructure:"all_remotes"`
	BadOnly         bool     `mapstructure:"bad_only"`
	NoColor         bool     `mapstructure:"no_color"`
	Delete          bool     `mapstructure:"delete"`
}

// DefaultCommandConfiguration provides baseline configuration values for branch health.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RepositoryPath:  defaultRepositoryPathConstant,
		ThresholdDays:   defaultThresholdDaysConstant,
		TrunkName:       defaultTrunkNameConstant,
		IgnoredBranches: []string{defaultTrunkNameConstant},
		NoIgnore:        false,
		RemoteName:      "",
		AllRemotes:      false,
		BadOnly:         false,
		NoColor:         false,
		Delete:          false,
	}
}

// DefaultConfigurationValues produces Viper defaults for branch health rooted at rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	prefix := rootKey + configurationKeySeparatorConstant
	return map[string]any{
		prefix + configurationRepositoryPathKeyConstant: defaults.RepositoryPath,
		prefix + configurationThresholdDaysKeyConstant:  defaults.ThresholdDays,
		prefix + configurationTrunkKeyConstant:          defaults.TrunkName,
		prefix + configurationIgnoreBranchesKeyConstant: defaults.IgnoredBranches,
		prefix + configurationNoIgnoreKeyConstant:       defaults.NoIgnore,
		prefix + configurationRemoteKeyConstant:         defaults.RemoteName,
		prefix + configurationAllRemotesKeyConstant:     defaults.AllRemotes,
		prefix + configurationBadOnlyKeyConstant:        defaults.BadOnly,
		prefix + configurationNoColorKeyConstant:        defaults.NoColor,
		prefix + configurationDeleteKeyConstant:         defaults.Delete,
	}
}

// sanitize trims configuration values without applying implicit defaults.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.RepositoryPath = strings.TrimSpace(configuration.RepositoryPath)
	sanitized.TrunkName = strings.TrimSpace(configuration.TrunkName)
	sanitized.RemoteName = strings.TrimSpace(configuration.RemoteName)
	sanitized.IgnoredBranches = sanitizeBranchNames(configuration.IgnoredBranches)
	return sanitized
}

// sanitizeBranchNames trims names, splits comma separated entries and drops blanks.
func sanitizeBranchNames(raw []string) []string {
	sanitized := make([]string, 0, len(raw))
	for _, candidate := range raw {
		for _, part := range strings.Split(candidate, ignoredBranchesListSeparatorConstant) {
			trimmed := strings.TrimSpace(part)
			if len(trimmed) == 0 {
				continue
			}
			sanitized = append(sanitized, trimmed)
		}
	}
	return sanitized
}
