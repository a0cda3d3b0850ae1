package branches

import (
	"errors"
	"fmt"
)

const (
	repositoryNotFoundMessageConstant       = "repository not found"
	remoteNotFoundMessageConstant           = "remote not found"
	trunkNotFoundMessageConstant            = "trunk not found"
	invalidThresholdMessageConstant         = "threshold days must be a positive integer"
	conflictingScopeFlagsMessageConstant    = "--remote and --all-remotes are mutually exclusive"
	trunkNameRequiredMessageConstant        = "trunk name required"
	remoteNameRequiredMessageConstant       = "remote name required"
	refStoreNotConfiguredMessageConstant    = "ref store not configured"
	clockNotConfiguredMessageConstant       = "clock not configured"
	invalidThresholdErrorTemplateConstant   = "%w: %d"
	repositoryNotFoundErrorTemplateConstant = "%w: %s"
	remoteNotFoundErrorTemplateConstant     = "%w: %s"
	trunkNotFoundErrorTemplateConstant      = "%w: %s"
)

// ErrRepositoryNotFound indicates the repository path does not lead to a git repository.
var ErrRepositoryNotFound = errors.New(repositoryNotFoundMessageConstant)

// ErrRemoteNotFound indicates the selected remote is not configured in the repository.
var ErrRemoteNotFound = errors.New(remoteNotFoundMessageConstant)

// ErrTrunkNotFound indicates the trunk branch does not resolve to a commit.
var ErrTrunkNotFound = errors.New(trunkNotFoundMessageConstant)

// ErrInvalidThreshold indicates a non-positive age threshold.
var ErrInvalidThreshold = errors.New(invalidThresholdMessageConstant)

// ErrConflictingScopeFlags indicates both a single remote and all remotes were requested.
var ErrConflictingScopeFlags = errors.New(conflictingScopeFlagsMessageConstant)

// ErrTrunkNameRequired indicates an empty trunk name.
var ErrTrunkNameRequired = errors.New(trunkNameRequiredMessageConstant)

// ErrRemoteNameRequired indicates a single-remote scope without a remote name.
var ErrRemoteNameRequired = errors.New(remoteNameRequiredMessageConstant)

// ErrRefStoreNotConfigured indicates a reader or planner was built without a ref store.
var ErrRefStoreNotConfigured = errors.New(refStoreNotConfiguredMessageConstant)

// ErrClockNotConfigured indicates a service was built without a clock.
var ErrClockNotConfigured = errors.New(clockNotConfiguredMessageConstant)

func newInvalidThresholdError(thresholdDays int) error {
	return fmt.Errorf(invalidThresholdErrorTemplateConstant, ErrInvalidThreshold, thresholdDays)
}
