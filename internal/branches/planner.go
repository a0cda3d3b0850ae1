package branches

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	plannerDecisionMessageConstant        = "Planned branch"
	plannerDeletedMessageConstant         = "Deleted branch"
	plannerDeletionFailedMessageConstant  = "Branch deletion failed"
	referenceVanishedReasonConstant       = "reference no longer exists"
	refusedDeletionReasonTemplateConstant = "refused: %s"
	existenceCheckReasonTemplateConstant  = "existence check failed: %v"
)

// BranchDeleter removes branch references. Remote branches are removed as local
// remote-tracking references only.
type BranchDeleter interface {
	ReferenceExists(executionContext context.Context, repositoryPath string, reference string) (bool, error)
	DeleteLocalBranch(executionContext context.Context, repositoryPath string, branchName string) error
	DeleteRemoteTrackingBranch(executionContext context.Context, repositoryPath string, remoteName string, branchName string) error
}

// Planner decides which classified branches may be pruned and carries out the deletions.
type Planner struct {
	deleter BranchDeleter
	logger  *zap.Logger
}

// NewPlanner constructs a Planner.
func NewPlanner(deleter BranchDeleter, logger *zap.Logger) (*Planner, error) {
	if deleter == nil {
		return nil, ErrRefStoreNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{deleter: deleter, logger: logger}, nil
}

// Plan computes a decision for every classified branch without touching the repository.
func (planner *Planner) Plan(classified []ClassifiedBranch, policy Policy) PrunePlan {
	plan := BuildPrunePlan(classified, policy)
	for _, entry := range plan.Entries {
		planner.logger.Debug(
			plannerDecisionMessageConstant,
			zap.String(logFieldBranchConstant, entry.Branch.QualifiedName),
			zap.String(logFieldStateConstant, entry.State.String()),
			zap.String(logFieldDecisionConstant, entry.Decision.String()),
		)
	}
	return plan
}

// BuildPrunePlan is the pure planning step. A branch is deleted only when it is prune-eligible,
// not trunk, not ignored and merged into trunk.
func BuildPrunePlan(classified []ClassifiedBranch, policy Policy) PrunePlan {
	entries := make([]PlanEntry, 0, len(classified))
	for _, classifiedBranch := range classified {
		entries = append(entries, PlanEntry{
			Branch:   classifiedBranch.Branch,
			State:    classifiedBranch.State,
			Age:      classifiedBranch.Age,
			Decision: decide(classifiedBranch.Branch, classifiedBranch.State, policy),
		})
	}
	return PrunePlan{Entries: entries}
}

func decide(branch Branch, state HealthState, policy Policy) Decision {
	switch {
	case policy.IsTrunk(branch):
		return SkipDecision(SkipReasonIsTrunk)
	case policy.IsIgnored(branch):
		return SkipDecision(SkipReasonIsIgnored)
	case state != HealthStatePruneEligible:
		return SkipDecision(SkipReasonNotEligibleByAge)
	case !branch.IsMergedIntoTrunk:
		return SkipDecision(SkipReasonNotMergedIntoTrunk)
	default:
		return DeleteDecision()
	}
}

// Execute deletes every Delete entry of the plan and records a per-branch outcome. Failures never
// stop the batch; cancellation of executionContext marks the remaining deletions as failed.
// Entries whose decision no longer satisfies the safety rules are refused.
func (planner *Planner) Execute(executionContext context.Context, repository Repository, plan PrunePlan, policy Policy) PrunePlan {
	executed := PrunePlan{Entries: make([]PlanEntry, len(plan.Entries)), Executed: true}
	copy(executed.Entries, plan.Entries)

	for index := range executed.Entries {
		entry := &executed.Entries[index]
		if !entry.Decision.IsDelete() {
			continue
		}
		entry.Outcome = planner.deleteEntry(executionContext, repository, *entry, policy)
		planner.logOutcome(*entry)
	}

	return executed
}

func (planner *Planner) deleteEntry(executionContext context.Context, repository Repository, entry PlanEntry, policy Policy) DeletionOutcome {
	if contextError := executionContext.Err(); contextError != nil {
		return DeletionFailed(contextError.Error())
	}

	if recomputed := decide(entry.Branch, entry.State, policy); !recomputed.IsDelete() {
		return DeletionFailed(fmt.Sprintf(refusedDeletionReasonTemplateConstant, recomputed.Reason.String()))
	}

	exists, existsError := planner.deleter.ReferenceExists(executionContext, repository.Root, entry.Branch.Reference)
	if existsError != nil {
		return DeletionFailed(fmt.Sprintf(existenceCheckReasonTemplateConstant, existsError))
	}
	if !exists {
		return DeletionFailed(referenceVanishedReasonConstant)
	}

	var deletionError error
	if entry.Branch.Scope.IsRemote() {
		deletionError = planner.deleter.DeleteRemoteTrackingBranch(executionContext, repository.Root, entry.Branch.Scope.RemoteName, entry.Branch.Name)
	} else {
		deletionError = planner.deleter.DeleteLocalBranch(executionContext, repository.Root, entry.Branch.Name)
	}
	if deletionError != nil {
		return DeletionFailed(deletionError.Error())
	}
	return Deleted()
}

func (planner *Planner) logOutcome(entry PlanEntry) {
	if entry.Outcome.Kind == DeletionOutcomeDeleted {
		planner.logger.Info(plannerDeletedMessageConstant, zap.String(logFieldBranchConstant, entry.Branch.QualifiedName))
		return
	}
	planner.logger.Warn(
		plannerDeletionFailedMessageConstant,
		zap.String(logFieldBranchConstant, entry.Branch.QualifiedName),
		zap.String(logFieldReasonConstant, entry.Outcome.Reason),
	)
}
