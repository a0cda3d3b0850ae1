package branches_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/branchhealth/internal/branches"
)

const testDay = 24 * time.Hour

var testNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func newBranch(name string, scope branches.BranchScope, age time.Duration, merged bool) branches.Branch {
	namespace := "refs/heads/"
	if scope.IsRemote() {
		namespace = "refs/remotes/" + scope.RemoteName + "/"
	}
	return branches.Branch{
		Name:              name,
		Scope:             scope,
		QualifiedName:     branches.QualifyBranchName(name, scope),
		Reference:         namespace + name,
		TipHash:           "tip-" + branches.QualifyBranchName(name, scope),
		LastCommitTime:    testNow.Add(-age),
		IsMergedIntoTrunk: merged,
	}
}

func newDefaultPolicy(testInstance *testing.T) branches.Policy {
	testInstance.Helper()
	policy, policyError := branches.NewPolicy(branches.PolicyOptions{
		ThresholdDays:   14,
		TrunkName:       "master",
		IgnoredBranches: []string{"master"},
	})
	require.NoError(testInstance, policyError)
	return policy
}

func TestClassifyScenarios(testInstance *testing.T) {
	testCases := []struct {
		name          string
		branch        branches.Branch
		expectedState branches.HealthState
	}{
		{
			name:          "recent_merged_branch",
			branch:        newBranch("feat-x", branches.LocalScope(), 10*testDay, true),
			expectedState: branches.HealthStateHealthy,
		},
		{
			name:          "stale_merged_branch",
			branch:        newBranch("feat-y", branches.LocalScope(), 20*testDay, true),
			expectedState: branches.HealthStateStale,
		},
		{
			name:          "prune_eligible_merged_branch",
			branch:        newBranch("feat-z", branches.LocalScope(), 30*testDay, true),
			expectedState: branches.HealthStatePruneEligible,
		},
		{
			name:          "prune_eligible_unmerged_branch",
			branch:        newBranch("feat-z", branches.LocalScope(), 30*testDay, false),
			expectedState: branches.HealthStatePruneEligible,
		},
		{
			name:          "ancient_trunk",
			branch:        newBranch("master", branches.LocalScope(), 1000*testDay, true),
			expectedState: branches.HealthStateHealthy,
		},
		{
			name:          "ancient_remote_trunk",
			branch:        newBranch("master", branches.RemoteScope("origin"), 1000*testDay, true),
			expectedState: branches.HealthStateHealthy,
		},
	}

	policy := newDefaultPolicy(testInstance)
	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			classified := branches.Classify([]branches.Branch{testCase.branch}, policy, testNow)
			require.Len(testInstance, classified, 1)
			require.Equal(testInstance, testCase.expectedState, classified[0].State)
			require.Equal(testInstance, testCase.branch, classified[0].Branch)
		})
	}
}

func TestClassifyThresholdBoundaries(testInstance *testing.T) {
	testCases := []struct {
		name          string
		age           time.Duration
		expectedState branches.HealthState
	}{
		{name: "exactly_threshold", age: 14 * testDay, expectedState: branches.HealthStateHealthy},
		{name: "just_past_threshold", age: 14*testDay + time.Nanosecond, expectedState: branches.HealthStateStale},
		{name: "exactly_prune_threshold", age: 28 * testDay, expectedState: branches.HealthStateStale},
		{name: "just_past_prune_threshold", age: 28*testDay + time.Second, expectedState: branches.HealthStatePruneEligible},
		{name: "future_commit", age: -time.Hour, expectedState: branches.HealthStateHealthy},
	}

	policy := newDefaultPolicy(testInstance)
	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			classified := branches.Classify([]branches.Branch{newBranch("work", branches.LocalScope(), testCase.age, false)}, policy, testNow)
			require.Equal(testInstance, testCase.expectedState, classified[0].State)
			require.Equal(testInstance, testCase.age, classified[0].Age)
		})
	}
}

func TestClassifyTreatsIgnoredBranchesAsHealthy(testInstance *testing.T) {
	policy, policyError := branches.NewPolicy(branches.PolicyOptions{
		ThresholdDays:   14,
		TrunkName:       "master",
		IgnoredBranches: []string{"release"},
	})
	require.NoError(testInstance, policyError)

	classified := branches.Classify([]branches.Branch{newBranch("release", branches.LocalScope(), 400*testDay, true)}, policy, testNow)
	require.Equal(testInstance, branches.HealthStateHealthy, classified[0].State)
}

func TestClassifyPreservesOrderAndIndexesByQualifiedName(testInstance *testing.T) {
	input := []branches.Branch{
		newBranch("feature", branches.LocalScope(), 1*testDay, false),
		newBranch("feature", branches.RemoteScope("origin"), 40*testDay, true),
	}

	classified := branches.Classify(input, newDefaultPolicy(testInstance), testNow)
	require.Equal(testInstance, "feature", classified[0].Branch.QualifiedName)
	require.Equal(testInstance, "origin/feature", classified[1].Branch.QualifiedName)

	index := branches.ClassificationIndex(classified)
	require.Len(testInstance, index, 2)
	require.Equal(testInstance, branches.HealthStateHealthy, index["feature"].State)
	require.Equal(testInstance, branches.HealthStatePruneEligible, index["origin/feature"].State)
}
