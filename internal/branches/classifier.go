package branches

import "time"

// Classify assigns a health state to every branch. Trunk and ignored branches are always
// healthy; everything else is judged by the age of its tip commit relative to now.
func Classify(branches []Branch, policy Policy, now time.Time) []ClassifiedBranch {
	classified := make([]ClassifiedBranch, 0, len(branches))
	for _, branch := range branches {
		age := now.Sub(branch.LastCommitTime)
		classified = append(classified, ClassifiedBranch{
			Branch: branch,
			State:  classifyBranch(branch, age, policy),
			Age:    age,
		})
	}
	return classified
}

// ClassificationIndex keys classified branches by qualified name.
func ClassificationIndex(classified []ClassifiedBranch) map[string]ClassifiedBranch {
	index := make(map[string]ClassifiedBranch, len(classified))
	for _, entry := range classified {
		index[entry.Branch.QualifiedName] = entry
	}
	return index
}

func classifyBranch(branch Branch, age time.Duration, policy Policy) HealthState {
	if policy.IsTrunk(branch) || policy.IsIgnored(branch) {
		return HealthStateHealthy
	}
	return classifyAge(age, policy)
}

func classifyAge(age time.Duration, policy Policy) HealthState {
	switch {
	case age > policy.PruneThreshold():
		return HealthStatePruneEligible
	case age > policy.Threshold():
		return HealthStateStale
	default:
		return HealthStateHealthy
	}
}
