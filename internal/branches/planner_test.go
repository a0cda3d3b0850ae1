package branches_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/branchhealth/internal/branches"
)

type recordingBranchDeleter struct {
	missingReferences map[string]bool
	existenceErrors   map[string]error
	deletionErrors    map[string]error
	deletedLocal      []string
	deletedTracking   []string
	cancelAfterDelete context.CancelFunc
}

func (deleter *recordingBranchDeleter) ReferenceExists(executionContext context.Context, repositoryPath string, reference string) (bool, error) {
	if existenceError, failed := deleter.existenceErrors[reference]; failed {
		return false, existenceError
	}
	return !deleter.missingReferences[reference], nil
}

func (deleter *recordingBranchDeleter) DeleteLocalBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	if deletionError, failed := deleter.deletionErrors[branchName]; failed {
		return deletionError
	}
	deleter.deletedLocal = append(deleter.deletedLocal, branchName)
	if deleter.cancelAfterDelete != nil {
		deleter.cancelAfterDelete()
	}
	return nil
}

func (deleter *recordingBranchDeleter) DeleteRemoteTrackingBranch(executionContext context.Context, repositoryPath string, remoteName string, branchName string) error {
	trackingName := remoteName + "/" + branchName
	if deletionError, failed := deleter.deletionErrors[trackingName]; failed {
		return deletionError
	}
	deleter.deletedTracking = append(deleter.deletedTracking, trackingName)
	return nil
}

func planFor(testInstance *testing.T, policy branches.Policy, input ...branches.Branch) branches.PrunePlan {
	testInstance.Helper()
	return branches.BuildPrunePlan(branches.Classify(input, policy, testNow), policy)
}

func TestBuildPrunePlanScenarios(testInstance *testing.T) {
	testCases := []struct {
		name             string
		branch           branches.Branch
		expectedState    branches.HealthState
		expectedDecision branches.Decision
	}{
		{
			name:             "scenario_a_recent",
			branch:           newBranch("feat-x", branches.LocalScope(), 10*testDay, true),
			expectedState:    branches.HealthStateHealthy,
			expectedDecision: branches.SkipDecision(branches.SkipReasonNotEligibleByAge),
		},
		{
			name:             "scenario_b_stale",
			branch:           newBranch("feat-y", branches.LocalScope(), 20*testDay, true),
			expectedState:    branches.HealthStateStale,
			expectedDecision: branches.SkipDecision(branches.SkipReasonNotEligibleByAge),
		},
		{
			name:             "scenario_c_merged_prune_eligible",
			branch:           newBranch("feat-z", branches.LocalScope(), 30*testDay, true),
			expectedState:    branches.HealthStatePruneEligible,
			expectedDecision: branches.DeleteDecision(),
		},
		{
			name:             "scenario_d_unmerged_prune_eligible",
			branch:           newBranch("feat-z", branches.LocalScope(), 30*testDay, false),
			expectedState:    branches.HealthStatePruneEligible,
			expectedDecision: branches.SkipDecision(branches.SkipReasonNotMergedIntoTrunk),
		},
		{
			name:             "scenario_e_trunk",
			branch:           newBranch("master", branches.LocalScope(), 1000*testDay, true),
			expectedState:    branches.HealthStateHealthy,
			expectedDecision: branches.SkipDecision(branches.SkipReasonIsTrunk),
		},
	}

	policy := newDefaultPolicy(testInstance)
	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			plan := planFor(testInstance, policy, testCase.branch)
			require.Len(testInstance, plan.Entries, 1)
			require.Equal(testInstance, testCase.expectedState, plan.Entries[0].State)
			require.Equal(testInstance, testCase.expectedDecision, plan.Entries[0].Decision)
			require.False(testInstance, plan.Executed)
			require.False(testInstance, plan.Entries[0].Outcome.Attempted())
		})
	}
}

func TestBuildPrunePlanIgnoredBeatsOtherReasons(testInstance *testing.T) {
	policy, policyError := branches.NewPolicy(branches.PolicyOptions{
		ThresholdDays:   14,
		TrunkName:       "master",
		IgnoredBranches: []string{"release"},
	})
	require.NoError(testInstance, policyError)

	plan := planFor(testInstance, policy, newBranch("release", branches.LocalScope(), 90*testDay, false))
	require.Equal(testInstance, branches.SkipDecision(branches.SkipReasonIsIgnored), plan.Entries[0].Decision)
}

func TestBuildPrunePlanOnlyDeletesSafeBranches(testInstance *testing.T) {
	policy, policyError := branches.NewPolicy(branches.PolicyOptions{
		ThresholdDays:   7,
		TrunkName:       "main",
		IgnoredBranches: []string{"develop"},
		Scope:           branches.AllRemotesAndLocal(),
	})
	require.NoError(testInstance, policyError)

	input := []branches.Branch{}
	for _, name := range []string{"main", "develop", "feature"} {
		for _, scope := range []branches.BranchScope{branches.LocalScope(), branches.RemoteScope("origin")} {
			for _, age := range []int{0, 5, 10, 15, 400} {
				for _, merged := range []bool{true, false} {
					input = append(input, newBranch(name, scope, testDayCount(age), merged))
				}
			}
		}
	}

	plan := planFor(testInstance, policy, input...)
	require.Len(testInstance, plan.Entries, len(input))
	for _, entry := range plan.Entries {
		safe := entry.State == branches.HealthStatePruneEligible &&
			entry.Branch.IsMergedIntoTrunk &&
			!policy.IsTrunk(entry.Branch) &&
			!policy.IsIgnored(entry.Branch)
		require.Equal(testInstance, safe, entry.Decision.IsDelete(), entry.Branch.QualifiedName)
	}
	require.Len(testInstance, plan.DeleteEntries(), 4)
}

func TestExecuteDeletesAndRecordsOutcomes(testInstance *testing.T) {
	policy, policyError := branches.NewPolicy(branches.PolicyOptions{
		ThresholdDays: 14,
		TrunkName:     "master",
		Scope:         branches.AllRemotesAndLocal(),
	})
	require.NoError(testInstance, policyError)

	plan := planFor(testInstance, policy,
		newBranch("old-local", branches.LocalScope(), 60*testDay, true),
		newBranch("old-tracking", branches.RemoteScope("origin"), 60*testDay, true),
		newBranch("vanished", branches.LocalScope(), 60*testDay, true),
		newBranch("locked", branches.LocalScope(), 60*testDay, true),
		newBranch("unreadable", branches.LocalScope(), 60*testDay, true),
		newBranch("fresh", branches.LocalScope(), 1*testDay, true),
	)

	deleter := &recordingBranchDeleter{
		missingReferences: map[string]bool{"refs/heads/vanished": true},
		existenceErrors:   map[string]error{"refs/heads/unreadable": errors.New("corrupt ref")},
		deletionErrors:    map[string]error{"locked": errors.New("checked out")},
	}
	observerCore, observerLogs := observer.New(zap.DebugLevel)
	planner, plannerError := branches.NewPlanner(deleter, zap.New(observerCore))
	require.NoError(testInstance, plannerError)

	executed := planner.Execute(context.Background(), branches.Repository{Root: "/repo"}, plan, policy)
	require.True(testInstance, executed.Executed)
	require.False(testInstance, plan.Executed)

	outcomes := map[string]branches.DeletionOutcome{}
	for _, entry := range executed.Entries {
		outcomes[entry.Branch.QualifiedName] = entry.Outcome
	}
	require.Equal(testInstance, branches.Deleted(), outcomes["old-local"])
	require.Equal(testInstance, branches.Deleted(), outcomes["origin/old-tracking"])
	require.Equal(testInstance, branches.DeletionFailed("reference no longer exists"), outcomes["vanished"])
	require.Equal(testInstance, branches.DeletionFailed("checked out"), outcomes["locked"])
	require.Equal(testInstance, branches.DeletionFailed("existence check failed: corrupt ref"), outcomes["unreadable"])
	require.False(testInstance, outcomes["fresh"].Attempted())

	require.Equal(testInstance, []string{"old-local"}, deleter.deletedLocal)
	require.Equal(testInstance, []string{"origin/old-tracking"}, deleter.deletedTracking)

	require.Equal(testInstance, 2, observerLogs.FilterLevelExact(zapcore.InfoLevel).Len())
	require.Equal(testInstance, 3, observerLogs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestExecuteRefusesEntriesThatAreNoLongerSafe(testInstance *testing.T) {
	policy := newDefaultPolicy(testInstance)
	plan := planFor(testInstance, policy, newBranch("feat-z", branches.LocalScope(), 30*testDay, true))
	plan.Entries[0].Branch.IsMergedIntoTrunk = false

	deleter := &recordingBranchDeleter{}
	planner, plannerError := branches.NewPlanner(deleter, nil)
	require.NoError(testInstance, plannerError)

	executed := planner.Execute(context.Background(), branches.Repository{Root: "/repo"}, plan, policy)
	require.Equal(testInstance, branches.DeletionFailed("refused: not merged into trunk"), executed.Entries[0].Outcome)
	require.Empty(testInstance, deleter.deletedLocal)
}

func TestExecuteStopsDeletingAfterCancellation(testInstance *testing.T) {
	policy := newDefaultPolicy(testInstance)
	plan := planFor(testInstance, policy,
		newBranch("first", branches.LocalScope(), 60*testDay, true),
		newBranch("second", branches.LocalScope(), 61*testDay, true),
	)

	executionContext, cancel := context.WithCancel(context.Background())
	defer cancel()
	deleter := &recordingBranchDeleter{cancelAfterDelete: cancel}
	planner, plannerError := branches.NewPlanner(deleter, zap.NewNop())
	require.NoError(testInstance, plannerError)

	executed := planner.Execute(executionContext, branches.Repository{Root: "/repo"}, plan, policy)
	require.Equal(testInstance, branches.Deleted(), executed.Entries[0].Outcome)
	require.Equal(testInstance, branches.DeletionFailed(context.Canceled.Error()), executed.Entries[1].Outcome)
	require.Equal(testInstance, []string{"first"}, deleter.deletedLocal)
}

func TestExecuteKeepsNonDeleteDecisions(testInstance *testing.T) {
	policy := newDefaultPolicy(testInstance)
	plan := planFor(testInstance, policy,
		newBranch("master", branches.LocalScope(), 500*testDay, true),
		newBranch("recent", branches.LocalScope(), 3*testDay, true),
		newBranch("stale", branches.LocalScope(), 20*testDay, true),
		newBranch("unmerged", branches.LocalScope(), 50*testDay, false),
		newBranch("merged", branches.LocalScope(), 50*testDay, true),
	)

	planner, plannerError := branches.NewPlanner(&recordingBranchDeleter{}, zap.NewNop())
	require.NoError(testInstance, plannerError)
	executed := planner.Execute(context.Background(), branches.Repository{Root: "/repo"}, plan, policy)

	require.Len(testInstance, executed.Entries, len(plan.Entries))
	for index, dryRunEntry := range plan.Entries {
		executedEntry := executed.Entries[index]
		require.Equal(testInstance, dryRunEntry.Decision, executedEntry.Decision)
		require.Equal(testInstance, dryRunEntry.State, executedEntry.State)
		require.Equal(testInstance, dryRunEntry.Decision.IsDelete(), executedEntry.Outcome.Attempted())
	}
}

func TestNewPlannerRequiresDeleter(testInstance *testing.T) {
	_, plannerError := branches.NewPlanner(nil, zap.NewNop())
	require.ErrorIs(testInstance, plannerError, branches.ErrRefStoreNotConfigured)
}

func testDayCount(days int) time.Duration {
	return time.Duration(days) * testDay
}
