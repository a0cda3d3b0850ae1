package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/temirov/branchhealth/internal/execshell"
	pathutils "github.com/temirov/branchhealth/internal/utils/path"
)

const (
	gitRevParseSubcommandConstant       = "rev-parse"
	gitShowTopLevelFlagConstant         = "--show-toplevel"
	gitAbsoluteGitDirectoryFlagConstant = "--absolute-git-dir"
	gitVerifyFlagConstant               = "--verify"
	gitQuietFlagConstant                = "--quiet"
	gitCommitPeelSuffixConstant         = "^{commit}"
	gitRemoteSubcommandConstant         = "remote"
	gitForEachRefSubcommandConstant     = "for-each-ref"
	gitForEachRefFormatFlagConstant     = "--format=%(refname)%00%(objectname)%00%(committerdate:raw)%00%(symref)"
	gitMergeBaseSubcommandConstant      = "merge-base"
	gitIsAncestorFlagConstant           = "--is-ancestor"
	gitBranchSubcommandConstant         = "branch"
	gitDeleteFlagConstant               = "--delete"
	gitForceFlagConstant                = "--force"
	gitRemotesFlagConstant              = "--remotes"
	gitConfigSubcommandConstant         = "config"
	gitBooleanTypeFlagConstant          = "--bool"
	gitGetFlagConstant                  = "--get"
	gitTerminalPromptEnvironmentName    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValue      = "0"
	gitBooleanTrueValueConstant         = "true"
	referenceFieldSeparatorConstant     = "\x00"
	referenceFieldCountConstant         = 4
	lineSeparatorConstant               = "\n"
	remoteReferenceSeparatorConstant    = "/"

	// LocalBranchNamespaceConstant is the namespace holding local branches.
	LocalBranchNamespaceConstant = "refs/heads/"
	// RemoteTrackingNamespaceConstant is the namespace holding remote-tracking branches.
	RemoteTrackingNamespaceConstant = "refs/remotes/"

	executorNotConfiguredMessageConstant      = "git executor not configured"
	repositoryPathRequiredMessageConstant     = "repository path required"
	notRepositoryMessageConstant              = "not a git repository"
	resolveRootErrorTemplateConstant          = "resolve repository root for %s: %w"
	notRepositoryErrorTemplateConstant        = "%w: %s"
	listRemotesErrorTemplateConstant          = "list remotes: %w"
	listReferencesErrorTemplateConstant       = "list references: %w"
	parseReferenceErrorTemplateConstant       = "parse reference line %q: %w"
	malformedReferenceLineMessageConstant     = "malformed reference line"
	resolveCommitErrorTemplateConstant        = "resolve %s: %w"
	ancestryErrorTemplateConstant             = "check ancestry of %s against %s: %w"
	deleteLocalBranchErrorTemplateConstant    = "delete local branch %s: %w"
	deleteTrackingBranchErrorTemplateConstant = "delete remote-tracking branch %s: %w"
	readConfigurationErrorTemplateConstant    = "read configuration %s: %w"
	committerTimestampErrorTemplateConstant   = "parse committer timestamp %q: %w"
	committerTimestampOffsetLengthConstant    = 5
	minutesPerHourConstant                    = 60
	secondsPerMinuteConstant                  = 60
	gitMissingValueExitCodeConstant           = 1
)

// ErrGitExecutorNotConfigured indicates the manager was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// ErrRepositoryPathRequired indicates an empty repository path was supplied.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrNotRepository indicates the supplied path is neither inside a work tree nor a git directory.
var ErrNotRepository = errors.New(notRepositoryMessageConstant)

var errMalformedReferenceLine = errors.New(malformedReferenceLineMessageConstant)

// GitExecutor exposes the subset of shell execution used by repository helpers.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ReferenceRecord describes one reference reported by git for-each-ref.
type ReferenceRecord struct {
	Reference      string
	ObjectName     string
	CommitterTime  time.Time
	SymbolicTarget string
}

// IsSymbolic reports whether the reference is a symbolic alias such as refs/remotes/origin/HEAD.
func (record ReferenceRecord) IsSymbolic() bool {
	return len(record.SymbolicTarget) > 0
}

// RepositoryManager runs git plumbing commands against a repository.
type RepositoryManager struct {
	executor     GitExecutor
	homeExpander *pathutils.HomeExpander
}

// NewRepositoryManager constructs a RepositoryManager.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor, homeExpander: pathutils.NewHomeExpander()}, nil
}

// ResolveRepositoryRoot finds the repository containing repositoryPath. Work trees resolve to
// their top level directory and bare repositories to their git directory.
func (manager *RepositoryManager) ResolveRepositoryRoot(executionContext context.Context, repositoryPath string) (string, error) {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return "", ErrRepositoryPathRequired
	}

	expandedPath := manager.homeExpander.Expand(trimmedPath)
	absolutePath, absoluteError := filepath.Abs(expandedPath)
	if absoluteError != nil {
		return "", fmt.Errorf(resolveRootErrorTemplateConstant, trimmedPath, absoluteError)
	}

	pathInfo, statError := os.Stat(absolutePath)
	if statError != nil || !pathInfo.IsDir() {
		return "", fmt.Errorf(notRepositoryErrorTemplateConstant, ErrNotRepository, absolutePath)
	}

	for _, locatorFlag := range []string{gitShowTopLevelFlagConstant, gitAbsoluteGitDirectoryFlagConstant} {
		result, executionError := manager.executeGit(executionContext, absolutePath, gitRevParseSubcommandConstant, locatorFlag)
		if executionError != nil {
			if _, commandFailed := execshell.ExitCode(executionError); commandFailed {
				continue
			}
			return "", fmt.Errorf(resolveRootErrorTemplateConstant, absolutePath, executionError)
		}
		resolvedRoot := strings.TrimSpace(result.StandardOutput)
		if len(resolvedRoot) > 0 {
			return filepath.Clean(resolvedRoot), nil
		}
	}

	return "", fmt.Errorf(notRepositoryErrorTemplateConstant, ErrNotRepository, absolutePath)
}

// ListRemotes returns configured remote names in sorted order.
func (manager *RepositoryManager) ListRemotes(executionContext context.Context, repositoryPath string) ([]string, error) {
	result, executionError := manager.executeGit(executionContext, repositoryPath, gitRemoteSubcommandConstant)
	if executionError != nil {
		return nil, fmt.Errorf(listRemotesErrorTemplateConstant, executionError)
	}

	remotes := []string{}
	for _, line := range strings.Split(result.StandardOutput, lineSeparatorConstant) {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		remotes = append(remotes, trimmed)
	}
	sort.Strings(remotes)
	return remotes, nil
}

// ListReferences enumerates references under the supplied namespaces along with their
// tip object and committer time.
func (manager *RepositoryManager) ListReferences(executionContext context.Context, repositoryPath string, namespaces ...string) ([]ReferenceRecord, error) {
	arguments := []string{gitForEachRefSubcommandConstant, gitForEachRefFormatFlagConstant}
	for _, namespace := range namespaces {
		arguments = append(arguments, strings.TrimSuffix(namespace, remoteReferenceSeparatorConstant))
	}

	result, executionError := manager.executeGit(executionContext, repositoryPath, arguments...)
	if executionError != nil {
		return nil, fmt.Errorf(listReferencesErrorTemplateConstant, executionError)
	}

	records := []ReferenceRecord{}
	for _, line := range strings.Split(result.StandardOutput, lineSeparatorConstant) {
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		record, parseError := parseReferenceLine(line)
		if parseError != nil {
			return nil, fmt.Errorf(parseReferenceErrorTemplateConstant, line, parseError)
		}
		records = append(records, record)
	}
	return records, nil
}

// ResolveCommit returns the commit a reference points to. The boolean is false when the
// reference does not exist.
func (manager *RepositoryManager) ResolveCommit(executionContext context.Context, repositoryPath string, reference string) (string, bool, error) {
	result, executionError := manager.executeGit(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, reference+gitCommitPeelSuffixConstant)
	if executionError != nil {
		if exitCode, commandFailed := execshell.ExitCode(executionError); commandFailed && exitCode == gitMissingValueExitCodeConstant {
			return "", false, nil
		}
		return "", false, fmt.Errorf(resolveCommitErrorTemplateConstant, reference, executionError)
	}

	objectName := strings.TrimSpace(result.StandardOutput)
	if len(objectName) == 0 {
		return "", false, nil
	}
	return objectName, true, nil
}

// ReferenceExists reports whether the reference currently resolves to a commit.
func (manager *RepositoryManager) ReferenceExists(executionContext context.Context, repositoryPath string, reference string) (bool, error) {
	_, exists, resolveError := manager.ResolveCommit(executionContext, repositoryPath, reference)
	return exists, resolveError
}

// IsAncestor reports whether ancestor is reachable from descendant. A commit is its own ancestor.
func (manager *RepositoryManager) IsAncestor(executionContext context.Context, repositoryPath string, ancestor string, descendant string) (bool, error) {
	_, executionError := manager.executeGit(executionContext, repositoryPath, gitMergeBaseSubcommandConstant, gitIsAncestorFlagConstant, ancestor, descendant)
	if executionError == nil {
		return true, nil
	}
	if exitCode, commandFailed := execshell.ExitCode(executionError); commandFailed && exitCode == gitMissingValueExitCodeConstant {
		return false, nil
	}
	return false, fmt.Errorf(ancestryErrorTemplateConstant, ancestor, descendant, executionError)
}

// DeleteLocalBranch force deletes refs/heads/<branchName>.
func (manager *RepositoryManager) DeleteLocalBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	_, executionError := manager.executeGit(executionContext, repositoryPath, gitBranchSubcommandConstant, gitDeleteFlagConstant, gitForceFlagConstant, branchName)
	if executionError != nil {
		return fmt.Errorf(deleteLocalBranchErrorTemplateConstant, branchName, executionError)
	}
	return nil
}

// DeleteRemoteTrackingBranch removes refs/remotes/<remoteName>/<branchName> from the local repository.
// Nothing is pushed to the remote.
func (manager *RepositoryManager) DeleteRemoteTrackingBranch(executionContext context.Context, repositoryPath string, remoteName string, branchName string) error {
	trackingName := remoteName + remoteReferenceSeparatorConstant + branchName
	_, executionError := manager.executeGit(executionContext, repositoryPath, gitBranchSubcommandConstant, gitDeleteFlagConstant, gitForceFlagConstant, gitRemotesFlagConstant, trackingName)
	if executionError != nil {
		return fmt.Errorf(deleteTrackingBranchErrorTemplateConstant, trackingName, executionError)
	}
	return nil
}

// ConfigBool reads a boolean repository configuration value. The second result is false when
// the key is not set.
func (manager *RepositoryManager) ConfigBool(executionContext context.Context, repositoryPath string, key string) (bool, bool, error) {
	result, executionError := manager.executeGit(executionContext, repositoryPath, gitConfigSubcommandConstant, gitBooleanTypeFlagConstant, gitGetFlagConstant, key)
	if executionError != nil {
		if exitCode, commandFailed := execshell.ExitCode(executionError); commandFailed && exitCode == gitMissingValueExitCodeConstant {
			return false, false, nil
		}
		return false, false, fmt.Errorf(readConfigurationErrorTemplateConstant, key, executionError)
	}
	return strings.TrimSpace(result.StandardOutput) == gitBooleanTrueValueConstant, true, nil
}

func (manager *RepositoryManager) executeGit(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	return manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     repositoryPath,
		EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentName: gitTerminalPromptDisabledValue},
	})
}

func parseReferenceLine(line string) (ReferenceRecord, error) {
	fields := strings.Split(strings.TrimRight(line, "\r"), referenceFieldSeparatorConstant)
	if len(fields) != referenceFieldCountConstant {
		return ReferenceRecord{}, errMalformedReferenceLine
	}

	committerTime, timeError := ParseCommitterTimestamp(fields[2])
	if timeError != nil {
		return ReferenceRecord{}, timeError
	}

	return ReferenceRecord{
		Reference:      strings.TrimSpace(fields[0]),
		ObjectName:     strings.TrimSpace(fields[1]),
		CommitterTime:  committerTime,
		SymbolicTarget: strings.TrimSpace(fields[3]),
	}, nil
}

// ParseCommitterTimestamp converts git's raw date format ("<unix seconds> <+hhmm>") into a time.Time
// carrying the recorded offset.
func ParseCommitterTimestamp(rawTimestamp string) (time.Time, error) {
	fields := strings.Fields(rawTimestamp)
	if len(fields) == 0 {
		return time.Time{}, fmt.Errorf(committerTimestampErrorTemplateConstant, rawTimestamp, errMalformedReferenceLine)
	}

	unixSeconds, parseError := strconv.ParseInt(fields[0], 10, 64)
	if parseError != nil {
		return time.Time{}, fmt.Errorf(committerTimestampErrorTemplateConstant, rawTimestamp, parseError)
	}
	timestamp := time.Unix(unixSeconds, 0).UTC()

	if len(fields) < 2 || len(fields[1]) != committerTimestampOffsetLengthConstant {
		return timestamp, nil
	}

	offsetText := fields[1]
	offsetHours, hoursError := strconv.Atoi(offsetText[1:3])
	offsetMinutes, minutesError := strconv.Atoi(offsetText[3:5])
	if hoursError != nil || minutesError != nil {
		return timestamp, nil
	}
	offsetSeconds := (offsetHours*minutesPerHourConstant + offsetMinutes) * secondsPerMinuteConstant
	if offsetText[0] == '-' {
		offsetSeconds = -offsetSeconds
	}
	return timestamp.In(time.FixedZone(offsetText, offsetSeconds)), nil
}
