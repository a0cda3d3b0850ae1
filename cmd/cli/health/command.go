package health

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/branchhealth/internal/branches"
	"github.com/temirov/branchhealth/internal/dependencies"
	"github.com/temirov/branchhealth/internal/gitrepo"
	"github.com/temirov/branchhealth/internal/ui"
)

const (
	// BadOnlyFlagName restricts the report to stale and prune-eligible branches.
	BadOnlyFlagName = "bad-only"
	// ThresholdDaysFlagName sets the stale threshold in days.
	ThresholdDaysFlagName = "num-days"
	// NoColorFlagName disables colored output.
	NoColorFlagName = "no-color"
	// RepositoryPathFlagName selects the repository to inspect.
	RepositoryPathFlagName = "repository_path"
	// DeleteFlagName requests deletion of prune-eligible merged branches.
	DeleteFlagName = "delete"
	// IgnoreBranchesFlagName lists branch names that are never pruned.
	IgnoreBranchesFlagName = "ignore-branches"
	// NoIgnoreFlagName empties the ignored branch set.
	NoIgnoreFlagName = "no-ignore"
	// TrunkFlagName names the trunk branch.
	TrunkFlagName = "trunk"
	// RemoteFlagName restricts the scope to one remote.
	RemoteFlagName = "remote"
	// AllRemotesFlagName widens the scope to every remote and local branches.
	AllRemotesFlagName = "all-remotes"

	badOnlyFlagShorthandConstant        = "b"
	thresholdDaysFlagShorthandConstant  = "d"
	noColorFlagShorthandConstant        = "n"
	repositoryPathFlagShorthandConstant = "R"
	deleteFlagShorthandConstant         = "D"
	ignoreBranchesFlagShorthandConstant = "i"
	trunkFlagShorthandConstant          = "t"
	remoteFlagShorthandConstant         = "r"

	badOnlyFlagUsageConstant        = "Only report stale and prune-eligible branches"
	thresholdDaysFlagUsageConstant  = "Days without commits after which a branch is stale (prune-eligible after twice as many)"
	noColorFlagUsageConstant        = "Disable colored output"
	repositoryPathFlagUsageConstant = "Path inside the repository to inspect"
	deleteFlagUsageConstant         = "Delete prune-eligible branches that are merged into trunk"
	ignoreBranchesFlagUsageConstant = "Comma separated branch names that are never pruned"
	noIgnoreFlagUsageConstant       = "Do not ignore any branch"
	trunkFlagUsageConstant          = "Name of the trunk branch"
	remoteFlagUsageConstant         = "Only inspect remote-tracking branches of this remote"
	allRemotesFlagUsageConstant     = "Inspect local branches and remote-tracking branches of every remote"

	unexpectedArgumentsMessageConstant    = "git-branchhealth does not accept positional arguments"
	unexpectedArgumentsTemplateConstant   = "%w: %s"
	argumentsJoinSeparatorConstant        = " "
	flagReadErrorTemplateConstant         = "unable to read --%s: %w"
	serviceConstructionTemplateConstant   = "unable to initialize branch health service: %w"
	repositoryManagerTemplateConstant     = "unable to initialize repository manager: %w"
	repositoryPreferencesTemplateConstant = "unable to read repository preferences: %w"
	renderReportTemplateConstant          = "unable to render report: %w"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder wires the branch health flags and run flow onto a Cobra command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	GitExecutor                  gitrepo.GitExecutor
	Clock                        branches.Clock
}

// Configure registers the branch health flags on command and installs the run function.
func (builder *CommandBuilder) Configure(command *cobra.Command) {
	defaults := DefaultCommandConfiguration()

	flagSet := command.Flags()
	flagSet.BoolP(BadOnlyFlagName, badOnlyFlagShorthandConstant, defaults.BadOnly, badOnlyFlagUsageConstant)
	flagSet.IntP(ThresholdDaysFlagName, thresholdDaysFlagShorthandConstant, defaults.ThresholdDays, thresholdDaysFlagUsageConstant)
	flagSet.BoolP(NoColorFlagName, noColorFlagShorthandConstant, defaults.NoColor, noColorFlagUsageConstant)
	flagSet.StringP(RepositoryPathFlagName, repositoryPathFlagShorthandConstant, defaults.RepositoryPath, repositoryPathFlagUsageConstant)
	flagSet.BoolP(DeleteFlagName, deleteFlagShorthandConstant, defaults.Delete, deleteFlagUsageConstant)
	flagSet.StringSliceP(IgnoreBranchesFlagName, ignoreBranchesFlagShorthandConstant, defaults.IgnoredBranches, ignoreBranchesFlagUsageConstant)
	flagSet.Bool(NoIgnoreFlagName, defaults.NoIgnore, noIgnoreFlagUsageConstant)
	flagSet.StringP(TrunkFlagName, trunkFlagShorthandConstant, defaults.TrunkName, trunkFlagUsageConstant)
	flagSet.StringP(RemoteFlagName, remoteFlagShorthandConstant, defaults.RemoteName, remoteFlagUsageConstant)
	flagSet.Bool(AllRemotesFlagName, defaults.AllRemotes, allRemotesFlagUsageConstant)

	command.RunE = builder.run
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf(unexpectedArgumentsTemplateConstant, errUnexpectedArguments, strings.Join(arguments, argumentsJoinSeparatorConstant))
	}

	configuration, configurationError := builder.resolveConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	policy, policyError := buildPolicy(configuration, configuration.NoIgnore)
	if policyError != nil {
		return policyError
	}

	logger := resolveLogger(builder.LoggerProvider)
	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}

	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, humanReadableLogging)
	if executorError != nil {
		return executorError
	}
	repositoryManager, managerError := dependencies.ResolveRepositoryManager(gitExecutor)
	if managerError != nil {
		return fmt.Errorf(repositoryManagerTemplateConstant, managerError)
	}

	clock := builder.Clock
	if clock == nil {
		clock = branches.SystemClock{}
	}

	service, serviceError := branches.NewService(branches.ServiceDependencies{
		RefStore:    repositoryManager,
		Deleter:     repositoryManager,
		Preferences: repositoryManager,
		Clock:       clock,
		Logger:      logger,
	})
	if serviceError != nil {
		return fmt.Errorf(serviceConstructionTemplateConstant, serviceError)
	}

	executionContext := command.Context()
	repository, openError := service.Open(executionContext, configuration.RepositoryPath)
	if openError != nil {
		return openError
	}

	preferences, preferencesError := service.Preferences(executionContext, repository)
	if preferencesError != nil {
		return fmt.Errorf(repositoryPreferencesTemplateConstant, preferencesError)
	}
	if preferences.NoIgnore && !configuration.NoIgnore {
		policy, policyError = buildPolicy(configuration, true)
		if policyError != nil {
			return policyError
		}
	}

	report, evaluationError := service.Evaluate(executionContext, repository, policy, configuration.Delete)
	if evaluationError != nil {
		return evaluationError
	}

	renderer := ui.NewReportRenderer(command.OutOrStdout(), ui.ReportOptions{
		BadOnly:      configuration.BadOnly,
		DisableColor: configuration.NoColor || preferences.NoColor,
	})
	if renderError := renderer.Render(report); renderError != nil {
		return fmt.Errorf(renderReportTemplateConstant, renderError)
	}
	return nil
}

// resolveConfiguration merges the configured values with explicitly provided flags.
func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) (CommandConfiguration, error) {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	flagSet := command.Flags()
	var readError error
	readBool := func(flagName string, target *bool) {
		if readError != nil || !flagSet.Changed(flagName) {
			return
		}
		value, flagError := flagSet.GetBool(flagName)
		if flagError != nil {
			readError = fmt.Errorf(flagReadErrorTemplateConstant, flagName, flagError)
			return
		}
		*target = value
	}
	readString := func(flagName string, target *string) {
		if readError != nil || !flagSet.Changed(flagName) {
			return
		}
		value, flagError := flagSet.GetString(flagName)
		if flagError != nil {
			readError = fmt.Errorf(flagReadErrorTemplateConstant, flagName, flagError)
			return
		}
		*target = value
	}

	readBool(BadOnlyFlagName, &configuration.BadOnly)
	readBool(NoColorFlagName, &configuration.NoColor)
	readBool(DeleteFlagName, &configuration.Delete)
	readBool(NoIgnoreFlagName, &configuration.NoIgnore)
	readBool(AllRemotesFlagName, &configuration.AllRemotes)
	readString(RepositoryPathFlagName, &configuration.RepositoryPath)
	readString(TrunkFlagName, &configuration.TrunkName)
	readString(RemoteFlagName, &configuration.RemoteName)

	if readError == nil && flagSet.Changed(ThresholdDaysFlagName) {
		thresholdDays, flagError := flagSet.GetInt(ThresholdDaysFlagName)
		if flagError != nil {
			readError = fmt.Errorf(flagReadErrorTemplateConstant, ThresholdDaysFlagName, flagError)
		}
		configuration.ThresholdDays = thresholdDays
	}
	if readError == nil && flagSet.Changed(IgnoreBranchesFlagName) {
		ignoredBranches, flagError := flagSet.GetStringSlice(IgnoreBranchesFlagName)
		if flagError != nil {
			readError = fmt.Errorf(flagReadErrorTemplateConstant, IgnoreBranchesFlagName, flagError)
		}
		configuration.IgnoredBranches = ignoredBranches
	}
	if readError != nil {
		return CommandConfiguration{}, readError
	}

	sanitized := configuration.sanitize()
	if len(sanitized.RemoteName) > 0 && sanitized.AllRemotes {
		return CommandConfiguration{}, branches.ErrConflictingScopeFlags
	}
	return sanitized, nil
}

func buildPolicy(configuration CommandConfiguration, noIgnore bool) (branches.Policy, error) {
	ignoredBranches := configuration.IgnoredBranches
	if noIgnore {
		ignoredBranches = nil
	}

	return branches.NewPolicy(branches.PolicyOptions{
		ThresholdDays:   configuration.ThresholdDays,
		TrunkName:       configuration.TrunkName,
		IgnoredBranches: ignoredBranches,
		Scope:           scopeFilter(configuration),
	})
}

func scopeFilter(configuration CommandConfiguration) branches.ScopeFilter {
	switch {
	case len(configuration.RemoteName) > 0:
		return branches.SingleRemote(configuration.RemoteName)
	case configuration.AllRemotes:
		return branches.AllRemotesAndLocal()
	default:
		return branches.LocalOnly()
	}
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
