package branches

import (
	"sort"
	"strings"
	"time"
)

const (
	hoursPerDayConstant               = 24
	pruneThresholdMultiplierConstant  = 2
	qualifiedNameSeparatorConstant    = "/"
	scopeLocalLabelConstant           = "local"
	scopeRemoteLabelTemplatePrefix    = "remote:"
	healthStateHealthyLabelConstant   = "healthy"
	healthStateStaleLabelConstant     = "stale"
	healthStatePruneLabelConstant     = "prune-eligible"
	decisionDeleteLabelConstant       = "delete"
	decisionSkipLabelPrefixConstant   = "skip: "
	skipReasonAgeLabelConstant        = "not eligible by age"
	skipReasonTrunkLabelConstant      = "is trunk"
	skipReasonIgnoredLabelConstant    = "is ignored"
	skipReasonNotMergedLabelConstant  = "not merged into trunk"
	outcomeDeletedLabelConstant       = "deleted"
	outcomeFailedLabelPrefixConstant  = "failed: "
	outcomePendingLabelConstant       = "pending"
	scopeFilterLocalOnlyLabelConstant = "local"
	scopeFilterAllLabelConstant       = "all remotes and local"
)

// ScopeKind distinguishes local branches from remote-tracking branches.
type ScopeKind int

// Supported scope kinds.
const (
	ScopeKindLocal ScopeKind = iota
	ScopeKindRemote
)

// BranchScope identifies where a branch lives.
type BranchScope struct {
	Kind       ScopeKind
	RemoteName string
}

// LocalScope describes branches under refs/heads.
func LocalScope() BranchScope {
	return BranchScope{Kind: ScopeKindLocal}
}

// RemoteScope describes remote-tracking branches of the named remote.
func RemoteScope(remoteName string) BranchScope {
	return BranchScope{Kind: ScopeKindRemote, RemoteName: remoteName}
}

// IsRemote reports whether the scope is a remote-tracking namespace.
func (scope BranchScope) IsRemote() bool {
	return scope.Kind == ScopeKindRemote
}

// String renders the scope for logs.
func (scope BranchScope) String() string {
	if scope.IsRemote() {
		return scopeRemoteLabelTemplatePrefix + scope.RemoteName
	}
	return scopeLocalLabelConstant
}

// Branch is one branch reference observed during enumeration.
type Branch struct {
	Name              string
	Scope             BranchScope
	QualifiedName     string
	Reference         string
	TipHash           string
	LastCommitTime    time.Time
	IsMergedIntoTrunk bool
}

// QualifyBranchName returns the name unique across every enumerated scope.
func QualifyBranchName(name string, scope BranchScope) string {
	if scope.IsRemote() {
		return scope.RemoteName + qualifiedNameSeparatorConstant + name
	}
	return name
}

// ScopeFilterKind selects which branch namespaces are enumerated.
type ScopeFilterKind int

// Supported scope filters.
const (
	ScopeFilterLocalOnly ScopeFilterKind = iota
	ScopeFilterSingleRemote
	ScopeFilterAllRemotesAndLocal
)

// ScopeFilter selects the branches a run considers.
type ScopeFilter struct {
	Kind       ScopeFilterKind
	RemoteName string
}

// LocalOnly selects local branches.
func LocalOnly() ScopeFilter {
	return ScopeFilter{Kind: ScopeFilterLocalOnly}
}

// SingleRemote selects the remote-tracking branches of one remote.
func SingleRemote(remoteName string) ScopeFilter {
	return ScopeFilter{Kind: ScopeFilterSingleRemote, RemoteName: remoteName}
}

// AllRemotesAndLocal selects local branches and the remote-tracking branches of every remote.
func AllRemotesAndLocal() ScopeFilter {
	return ScopeFilter{Kind: ScopeFilterAllRemotesAndLocal}
}

// String renders the filter for logs and reports.
func (filter ScopeFilter) String() string {
	switch filter.Kind {
	case ScopeFilterSingleRemote:
		return scopeRemoteLabelTemplatePrefix + filter.RemoteName
	case ScopeFilterAllRemotesAndLocal:
		return scopeFilterAllLabelConstant
	default:
		return scopeFilterLocalOnlyLabelConstant
	}
}

// PolicyOptions carries the raw values a Policy is built from.
type PolicyOptions struct {
	ThresholdDays   int
	TrunkName       string
	IgnoredBranches []string
	Scope           ScopeFilter
}

// Policy is the validated, read-only configuration shared by every stage of a run.
type Policy struct {
	thresholdDays   int
	trunkName       string
	ignoredBranches map[string]struct{}
	scope           ScopeFilter
}

// NewPolicy validates options and produces an immutable Policy.
func NewPolicy(options PolicyOptions) (Policy, error) {
	if options.ThresholdDays <= 0 {
		return Policy{}, newInvalidThresholdError(options.ThresholdDays)
	}

	trimmedTrunkName := strings.TrimSpace(options.TrunkName)
	if len(trimmedTrunkName) == 0 {
		return Policy{}, ErrTrunkNameRequired
	}

	scope := options.Scope
	scope.RemoteName = strings.TrimSpace(scope.RemoteName)
	if scope.Kind == ScopeFilterSingleRemote && len(scope.RemoteName) == 0 {
		return Policy{}, ErrRemoteNameRequired
	}
	if scope.Kind != ScopeFilterSingleRemote {
		scope.RemoteName = ""
	}

	ignoredBranches := make(map[string]struct{}, len(options.IgnoredBranches))
	for _, ignoredBranch := range options.IgnoredBranches {
		trimmedBranch := strings.TrimSpace(ignoredBranch)
		if len(trimmedBranch) == 0 {
			continue
		}
		ignoredBranches[trimmedBranch] = struct{}{}
	}

	return Policy{
		thresholdDays:   options.ThresholdDays,
		trunkName:       trimmedTrunkName,
		ignoredBranches: ignoredBranches,
		scope:           scope,
	}, nil
}

// ThresholdDays is the age in days beyond which a branch is stale.
func (policy Policy) ThresholdDays() int {
	return policy.thresholdDays
}

// PruneThresholdDays is the age in days beyond which a branch may be pruned.
func (policy Policy) PruneThresholdDays() int {
	return policy.thresholdDays * pruneThresholdMultiplierConstant
}

// Threshold returns ThresholdDays as a duration.
func (policy Policy) Threshold() time.Duration {
	return daysToDuration(policy.ThresholdDays())
}

// PruneThreshold returns PruneThresholdDays as a duration.
func (policy Policy) PruneThreshold() time.Duration {
	return daysToDuration(policy.PruneThresholdDays())
}

// TrunkName is the mainline branch name.
func (policy Policy) TrunkName() string {
	return policy.trunkName
}

// Scope reports which namespaces are enumerated.
func (policy Policy) Scope() ScopeFilter {
	return policy.scope
}

// IgnoredBranches returns the ignored names in sorted order.
func (policy Policy) IgnoredBranches() []string {
	names := make([]string, 0, len(policy.ignoredBranches))
	for name := range policy.ignoredBranches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsTrunk reports whether the branch carries the trunk name. Remote copies of trunk count as trunk.
func (policy Policy) IsTrunk(branch Branch) bool {
	return branch.Name == policy.trunkName
}

// IsIgnored reports whether the branch is in the ignored set, matched by short or qualified name.
func (policy Policy) IsIgnored(branch Branch) bool {
	if _, ignored := policy.ignoredBranches[branch.Name]; ignored {
		return true
	}
	_, ignored := policy.ignoredBranches[branch.QualifiedName]
	return ignored
}

func daysToDuration(days int) time.Duration {
	return time.Duration(days) * hoursPerDayConstant * time.Hour
}

// HealthState is the age-derived classification of a branch.
type HealthState int

// Health states ordered by severity.
const (
	HealthStateHealthy HealthState = iota
	HealthStateStale
	HealthStatePruneEligible
)

// String renders the state for reports.
func (state HealthState) String() string {
	switch state {
	case HealthStateStale:
		return healthStateStaleLabelConstant
	case HealthStatePruneEligible:
		return healthStatePruneLabelConstant
	default:
		return healthStateHealthyLabelConstant
	}
}

// IsUnhealthy reports whether the state is Stale or PruneEligible.
func (state HealthState) IsUnhealthy() bool {
	return state != HealthStateHealthy
}

// ClassifiedBranch pairs a branch with its health state.
type ClassifiedBranch struct {
	Branch Branch
	State  HealthState
	Age    time.Duration
}

// SkipReason explains why a branch is not deleted.
type SkipReason int

// Skip reasons.
const (
	SkipReasonNotEligibleByAge SkipReason = iota
	SkipReasonIsTrunk
	SkipReasonIsIgnored
	SkipReasonNotMergedIntoTrunk
)

// String renders the reason for reports.
func (reason SkipReason) String() string {
	switch reason {
	case SkipReasonIsTrunk:
		return skipReasonTrunkLabelConstant
	case SkipReasonIsIgnored:
		return skipReasonIgnoredLabelConstant
	case SkipReasonNotMergedIntoTrunk:
		return skipReasonNotMergedLabelConstant
	default:
		return skipReasonAgeLabelConstant
	}
}

// DecisionKind is either Delete or Skip.
type DecisionKind int

// Decision kinds.
const (
	DecisionKindSkip DecisionKind = iota
	DecisionKindDelete
)

// Decision is the planner verdict for one branch. Reason is meaningful only for Skip.
type Decision struct {
	Kind   DecisionKind
	Reason SkipReason
}

// DeleteDecision marks a branch for deletion.
func DeleteDecision() Decision {
	return Decision{Kind: DecisionKindDelete}
}

// SkipDecision keeps a branch for the given reason.
func SkipDecision(reason SkipReason) Decision {
	return Decision{Kind: DecisionKindSkip, Reason: reason}
}

// IsDelete reports whether the decision deletes the branch.
func (decision Decision) IsDelete() bool {
	return decision.Kind == DecisionKindDelete
}

// String renders the decision for reports.
func (decision Decision) String() string {
	if decision.IsDelete() {
		return decisionDeleteLabelConstant
	}
	return decisionSkipLabelPrefixConstant + decision.Reason.String()
}

// DeletionOutcomeKind records how an attempted deletion ended.
type DeletionOutcomeKind int

// Deletion outcome kinds. Pending means no deletion was attempted.
const (
	DeletionOutcomePending DeletionOutcomeKind = iota
	DeletionOutcomeDeleted
	DeletionOutcomeFailed
)

// DeletionOutcome is the result of executing a Delete decision.
type DeletionOutcome struct {
	Kind   DeletionOutcomeKind
	Reason string
}

// Deleted reports success.
func Deleted() DeletionOutcome {
	return DeletionOutcome{Kind: DeletionOutcomeDeleted}
}

// DeletionFailed reports failure with a reason.
func DeletionFailed(reason string) DeletionOutcome {
	return DeletionOutcome{Kind: DeletionOutcomeFailed, Reason: reason}
}

// Attempted reports whether the deletion ran.
func (outcome DeletionOutcome) Attempted() bool {
	return outcome.Kind != DeletionOutcomePending
}

// String renders the outcome for reports.
func (outcome DeletionOutcome) String() string {
	switch outcome.Kind {
	case DeletionOutcomeDeleted:
		return outcomeDeletedLabelConstant
	case DeletionOutcomeFailed:
		return outcomeFailedLabelPrefixConstant + outcome.Reason
	default:
		return outcomePendingLabelConstant
	}
}

// PlanEntry is one row of a PrunePlan.
type PlanEntry struct {
	Branch   Branch
	State    HealthState
	Age      time.Duration
	Decision Decision
	Outcome  DeletionOutcome
}

// PrunePlan lists the decision for every classified branch in enumeration order.
type PrunePlan struct {
	Entries  []PlanEntry
	Executed bool
}

// DeleteEntries returns the entries whose decision is Delete.
func (plan PrunePlan) DeleteEntries() []PlanEntry {
	entries := []PlanEntry{}
	for _, entry := range plan.Entries {
		if entry.Decision.IsDelete() {
			entries = append(entries, entry)
		}
	}
	return entries
}
