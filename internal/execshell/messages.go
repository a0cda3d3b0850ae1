package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	flagPrefixConstant                      = "-"
)

const (
	gitRevParseSubcommandNameConstant    = "rev-parse"
	gitShowTopLevelFlagConstant          = "--show-toplevel"
	gitAbsoluteGitDirectoryFlagConstant  = "--absolute-git-dir"
	gitRemoteSubcommandNameConstant      = "remote"
	gitForEachRefSubcommandNameConstant  = "for-each-ref"
	gitMergeBaseSubcommandNameConstant   = "merge-base"
	gitIsAncestorFlagConstant            = "--is-ancestor"
	gitBranchSubcommandNameConstant      = "branch"
	gitDeleteFlagConstant                = "--delete"
	gitRemotesFlagConstant               = "--remotes"
	gitConfigSubcommandNameConstant      = "config"
	gitCommitPeelSuffixConstant          = "^{commit}"
	gitMergeBaseNotAncestorExitCodeValue = 1
)

const (
	gitTopLevelStartTemplateConstant                    = "Locating repository root from %s"
	gitTopLevelSuccessTemplateConstant                  = "Repository root for %s is %s"
	gitTopLevelFailureTemplateConstant                  = "%s is not inside a Git working tree (exit code %d%s)"
	gitTopLevelExecutionFailureTemplateConstant         = "Unable to locate repository root from %s: %s"
	gitDirectoryStartTemplateConstant                   = "Locating git directory from %s"
	gitDirectorySuccessTemplateConstant                 = "Git directory for %s is %s"
	gitDirectoryFailureTemplateConstant                 = "%s is not a Git repository (exit code %d%s)"
	gitDirectoryExecutionFailureTemplateConstant        = "Unable to locate git directory from %s: %s"
	gitRevisionStartTemplateConstant                    = "Resolving %s in %s"
	gitRevisionSuccessTemplateConstant                  = "%s in %s resolved to %s"
	gitRevisionEmptySuccessTemplateConstant             = "%s in %s did not resolve to a revision"
	gitRevisionFailureTemplateConstant                  = "%s does not exist in %s (exit code %d%s)"
	gitRevisionExecutionFailureTemplateConstant         = "Unable to resolve %s in %s: %s"
	gitRemoteListStartTemplateConstant                  = "Listing remotes in %s"
	gitRemoteListSuccessTemplateConstant                = "Listed %d remote(s) in %s"
	gitRemoteListFailureTemplateConstant                = "Failed to list remotes in %s (exit code %d%s)"
	gitRemoteListExecutionFailureTemplateConstant       = "Unable to list remotes in %s: %s"
	gitReferenceListStartTemplateConstant               = "Enumerating %s in %s"
	gitReferenceListSuccessTemplateConstant             = "Enumerated %d reference(s) under %s in %s"
	gitReferenceListFailureTemplateConstant             = "Failed to enumerate %s in %s (exit code %d%s)"
	gitReferenceListExecutionFailureTemplateConstant    = "Unable to enumerate %s in %s: %s"
	gitAncestryStartTemplateConstant                    = "Checking whether %s is merged into %s in %s"
	gitAncestrySuccessTemplateConstant                  = "%s is merged into %s in %s"
	gitAncestryNotMergedTemplateConstant                = "%s is not merged into %s in %s"
	gitAncestryFailureTemplateConstant                  = "Failed to check whether %s is merged into %s in %s (exit code %d%s)"
	gitAncestryExecutionFailureTemplateConstant         = "Unable to check whether %s is merged into %s in %s: %s"
	gitLocalBranchDeletionStartTemplateConstant         = "Removing local branch %s in %s"
	gitLocalBranchDeletionSuccessTemplateConstant       = "Removed local branch %s in %s"
	gitLocalBranchDeletionFailureTemplateConstant       = "Failed to remove local branch %s in %s (exit code %d%s)"
	gitLocalBranchDeletionExecutionTemplateConstant     = "Unable to remove local branch %s in %s: %s"
	gitTrackingBranchDeletionStartTemplateConstant      = "Removing remote-tracking branch %s in %s"
	gitTrackingBranchDeletionSuccessTemplateConstant    = "Removed remote-tracking branch %s in %s"
	gitTrackingBranchDeletionFailureTemplateConstant    = "Failed to remove remote-tracking branch %s in %s (exit code %d%s)"
	gitTrackingBranchDeletionExecutionTemplateConstant  = "Unable to remove remote-tracking branch %s in %s: %s"
	gitConfigReadStartTemplateConstant                  = "Reading %s from repository configuration in %s"
	gitConfigReadSuccessTemplateConstant                = "Repository configuration %s in %s is %s"
	gitConfigReadMissingTemplateConstant                = "Repository configuration %s is not set in %s"
	gitConfigReadExecutionFailureTemplateConstant       = "Unable to read %s from repository configuration in %s: %s"
	gitConfigKeyMissingExitCodeValue                    = 1
	gitReferenceListDefaultNamespaceDescriptionConstant = "all references"
	gitReferenceListNamespaceJoinSeparatorConstant      = ", "
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildCompletionMessage formats the message describing a completed command using its output.
func (formatter CommandMessageFormatter) BuildCompletionMessage(command ShellCommand, result ExecutionResult) string {
	if result.ExitCode != 0 {
		return formatter.BuildFailureMessage(command, result)
	}
	return formatter.buildMessage(command, result, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(command.Details.Arguments[0])
	switch subcommand {
	case gitRevParseSubcommandNameConstant:
		return formatter.describeGitRevParseMessage(command, result, failure, stage)
	case gitRemoteSubcommandNameConstant:
		return formatter.describeGitRemoteMessage(command, result, failure, stage)
	case gitForEachRefSubcommandNameConstant:
		return formatter.describeGitForEachRefMessage(command, result, failure, stage)
	case gitMergeBaseSubcommandNameConstant:
		return formatter.describeGitMergeBaseMessage(command, result, failure, stage)
	case gitBranchSubcommandNameConstant:
		return formatter.describeGitBranchMessage(command, result, failure, stage)
	case gitConfigSubcommandNameConstant:
		return formatter.describeGitConfigMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitRevParseMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)
	standardErrorSuffix := formatter.formatStandardErrorSuffix(result.StandardError)
	trimmedOutput := strings.TrimSpace(result.StandardOutput)

	if containsArgument(arguments, gitShowTopLevelFlagConstant) {
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitTopLevelStartTemplateConstant, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitTopLevelSuccessTemplateConstant, workingDirectory, formatter.ensureValue(trimmedOutput))
		case messageStageFailure:
			return fmt.Sprintf(gitTopLevelFailureTemplateConstant, workingDirectory, result.ExitCode, standardErrorSuffix)
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitTopLevelExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
		}
	}

	if containsArgument(arguments, gitAbsoluteGitDirectoryFlagConstant) {
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitDirectoryStartTemplateConstant, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitDirectorySuccessTemplateConstant, workingDirectory, formatter.ensureValue(trimmedOutput))
		case messageStageFailure:
			return fmt.Sprintf(gitDirectoryFailureTemplateConstant, workingDirectory, result.ExitCode, standardErrorSuffix)
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitDirectoryExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
		}
	}

	reference := strings.TrimSuffix(formatter.resolveLastArgument(arguments), gitCommitPeelSuffixConstant)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitRevisionStartTemplateConstant, reference, workingDirectory)
	case messageStageSuccess:
		if len(trimmedOutput) == 0 {
			return fmt.Sprintf(gitRevisionEmptySuccessTemplateConstant, reference, workingDirectory)
		}
		return fmt.Sprintf(gitRevisionSuccessTemplateConstant, reference, workingDirectory, trimmedOutput)
	case messageStageFailure:
		return fmt.Sprintf(gitRevisionFailureTemplateConstant, reference, workingDirectory, result.ExitCode, standardErrorSuffix)
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitRevisionExecutionFailureTemplateConstant, reference, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitRemoteMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if len(command.Details.Arguments) > 1 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitRemoteListStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitRemoteListSuccessTemplateConstant, countNonEmptyLines(result.StandardOutput), workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitRemoteListFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitRemoteListExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitForEachRefMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	namespaces := formatter.extractNonFlagArguments(command.Details.Arguments[1:])
	namespaceDescription := gitReferenceListDefaultNamespaceDescriptionConstant
	if len(namespaces) > 0 {
		namespaceDescription = strings.Join(namespaces, gitReferenceListNamespaceJoinSeparatorConstant)
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitReferenceListStartTemplateConstant, namespaceDescription, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitReferenceListSuccessTemplateConstant, countNonEmptyLines(result.StandardOutput), namespaceDescription, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitReferenceListFailureTemplateConstant, namespaceDescription, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitReferenceListExecutionFailureTemplateConstant, namespaceDescription, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMergeBaseMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if !containsArgument(arguments, gitIsAncestorFlagConstant) {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	revisions := formatter.extractNonFlagArguments(arguments[1:])
	candidate := formatter.ensureValue(formatter.argumentAtIndex(revisions, 0))
	trunk := formatter.ensureValue(formatter.argumentAtIndex(revisions, 1))
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitAncestryStartTemplateConstant, candidate, trunk, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitAncestrySuccessTemplateConstant, candidate, trunk, workingDirectory)
	case messageStageFailure:
		if result.ExitCode == gitMergeBaseNotAncestorExitCodeValue {
			return fmt.Sprintf(gitAncestryNotMergedTemplateConstant, candidate, trunk, workingDirectory)
		}
		return fmt.Sprintf(gitAncestryFailureTemplateConstant, candidate, trunk, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitAncestryExecutionFailureTemplateConstant, candidate, trunk, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitBranchMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if !containsArgument(arguments, gitDeleteFlagConstant) {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	branchName := formatter.ensureValue(formatter.resolveLastArgument(arguments))
	workingDirectory := formatter.describeWorkingDirectory(command)
	standardErrorSuffix := formatter.formatStandardErrorSuffix(result.StandardError)

	if containsArgument(arguments, gitRemotesFlagConstant) {
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitTrackingBranchDeletionStartTemplateConstant, branchName, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitTrackingBranchDeletionSuccessTemplateConstant, branchName, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitTrackingBranchDeletionFailureTemplateConstant, branchName, workingDirectory, result.ExitCode, standardErrorSuffix)
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitTrackingBranchDeletionExecutionTemplateConstant, branchName, workingDirectory, formatter.describeFailure(failure))
		}
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitLocalBranchDeletionStartTemplateConstant, branchName, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitLocalBranchDeletionSuccessTemplateConstant, branchName, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitLocalBranchDeletionFailureTemplateConstant, branchName, workingDirectory, result.ExitCode, standardErrorSuffix)
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitLocalBranchDeletionExecutionTemplateConstant, branchName, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitConfigMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	configurationKey := formatter.ensureValue(formatter.resolveLastArgument(command.Details.Arguments))
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitConfigReadStartTemplateConstant, configurationKey, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitConfigReadSuccessTemplateConstant, configurationKey, workingDirectory, formatter.ensureValue(result.StandardOutput))
	case messageStageFailure:
		if result.ExitCode == gitConfigKeyMissingExitCodeValue {
			return fmt.Sprintf(gitConfigReadMissingTemplateConstant, configurationKey, workingDirectory)
		}
		return formatter.buildGenericMessage(command, result, failure, stage)
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitConfigReadExecutionFailureTemplateConstant, configurationKey, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	workingDirectorySuffix := formatter.formatWorkingDirectorySuffix(command)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) resolveLastArgument(arguments []string) string {
	if len(arguments) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	lastArgument := strings.TrimSpace(arguments[len(arguments)-1])
	if len(lastArgument) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return lastArgument
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index >= 0 && index < len(arguments) {
		return arguments[index]
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) extractNonFlagArguments(arguments []string) []string {
	values := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		values = append(values, trimmed)
	}
	return values
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func countNonEmptyLines(output string) int {
	count := 0
	for _, line := range strings.Split(output, "\n") {
		if len(strings.TrimSpace(line)) > 0 {
			count++
		}
	}
	return count
}
