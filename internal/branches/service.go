package branches

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// NoColorConfigurationKeyConstant disables colored output when set in the repository configuration.
	NoColorConfigurationKeyConstant = "branchhealth.nocolor"
	// NoIgnoreConfigurationKeyConstant empties the ignored branch set when set in the repository configuration.
	NoIgnoreConfigurationKeyConstant = "branchhealth.noignore"

	serviceRunStartedMessageConstant    = "Evaluating branch health"
	serviceRunCompletedMessageConstant  = "Evaluated branch health"
	readPreferenceErrorTemplateConstant = "read repository preference %s: %w"
	logFieldThresholdConstant           = "threshold_days"
	logFieldTrunkConstant               = "trunk"
	logFieldDeleteRequestedConstant     = "delete_requested"
	logFieldBranchCountConstant         = "branch_count"
	logFieldDeleteCountConstant         = "delete_count"
)

// Clock abstracts time acquisition for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time source.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// PreferenceReader reads boolean repository configuration.
type PreferenceReader interface {
	ConfigBool(executionContext context.Context, repositoryPath string, key string) (bool, bool, error)
}

// RepositoryPreferences holds the per-repository switches stored in git configuration.
type RepositoryPreferences struct {
	NoColor  bool
	NoIgnore bool
}

// ServiceDependencies wires the collaborators of a Service.
type ServiceDependencies struct {
	RefStore    RefStore
	Deleter     BranchDeleter
	Preferences PreferenceReader
	Clock       Clock
	Logger      *zap.Logger
}

// Summary counts branches per health state and deletion outcome.
type Summary struct {
	Healthy       int
	Stale         int
	PruneEligible int
	Deleted       int
	Failed        int
}

// Report is the result of one branch health evaluation.
type Report struct {
	Repository      Repository
	Policy          Policy
	EvaluatedAt     time.Time
	DeleteRequested bool
	Plan            PrunePlan
	Summary         Summary
}

// Service runs enumerate, classify, plan and optionally delete for a repository.
type Service struct {
	reader      *Reader
	planner     *Planner
	preferences PreferenceReader
	clock       Clock
	logger      *zap.Logger
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.RefStore == nil || dependencies.Deleter == nil || dependencies.Preferences == nil {
		return nil, ErrRefStoreNotConfigured
	}
	if dependencies.Clock == nil {
		return nil, ErrClockNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	reader, readerError := NewReader(dependencies.RefStore, logger)
	if readerError != nil {
		return nil, readerError
	}
	planner, plannerError := NewPlanner(dependencies.Deleter, logger)
	if plannerError != nil {
		return nil, plannerError
	}

	return &Service{
		reader:      reader,
		planner:     planner,
		preferences: dependencies.Preferences,
		clock:       dependencies.Clock,
		logger:      logger,
	}, nil
}

// Open resolves the repository containing repositoryPath.
func (service *Service) Open(executionContext context.Context, repositoryPath string) (Repository, error) {
	return service.reader.Open(executionContext, repositoryPath)
}

// Preferences reads the branchhealth.* switches from the repository configuration.
func (service *Service) Preferences(executionContext context.Context, repository Repository) (RepositoryPreferences, error) {
	noColor, _, noColorError := service.preferences.ConfigBool(executionContext, repository.Root, NoColorConfigurationKeyConstant)
	if noColorError != nil {
		return RepositoryPreferences{}, fmt.Errorf(readPreferenceErrorTemplateConstant, NoColorConfigurationKeyConstant, noColorError)
	}
	noIgnore, _, noIgnoreError := service.preferences.ConfigBool(executionContext, repository.Root, NoIgnoreConfigurationKeyConstant)
	if noIgnoreError != nil {
		return RepositoryPreferences{}, fmt.Errorf(readPreferenceErrorTemplateConstant, NoIgnoreConfigurationKeyConstant, noIgnoreError)
	}
	return RepositoryPreferences{NoColor: noColor, NoIgnore: noIgnore}, nil
}

// Evaluate enumerates, classifies and plans. Deletions run only when deleteRequested is true.
func (service *Service) Evaluate(executionContext context.Context, repository Repository, policy Policy, deleteRequested bool) (Report, error) {
	service.logger.Info(
		serviceRunStartedMessageConstant,
		zap.String(logFieldRepositoryConstant, repository.Root),
		zap.String(logFieldScopeConstant, policy.Scope().String()),
		zap.Int(logFieldThresholdConstant, policy.ThresholdDays()),
		zap.String(logFieldTrunkConstant, policy.TrunkName()),
		zap.Bool(logFieldDeleteRequestedConstant, deleteRequested),
	)

	branches, listError := service.reader.ListBranches(executionContext, repository, policy.Scope(), policy.TrunkName())
	if listError != nil {
		return Report{}, listError
	}

	now := service.clock.Now()
	plan := service.planner.Plan(Classify(branches, policy, now), policy)
	if deleteRequested {
		plan = service.planner.Execute(executionContext, repository, plan, policy)
	}

	report := Report{
		Repository:      repository,
		Policy:          policy,
		EvaluatedAt:     now,
		DeleteRequested: deleteRequested,
		Plan:            plan,
		Summary:         Summarize(plan),
	}

	service.logger.Info(
		serviceRunCompletedMessageConstant,
		zap.String(logFieldRepositoryConstant, repository.Root),
		zap.Int(logFieldBranchCountConstant, len(plan.Entries)),
		zap.Int(logFieldDeleteCountConstant, len(plan.DeleteEntries())),
	)
	return report, nil
}

// Summarize counts the entries of a plan.
func Summarize(plan PrunePlan) Summary {
	summary := Summary{}
	for _, entry := range plan.Entries {
		switch entry.State {
		case HealthStateHealthy:
			summary.Healthy++
		case HealthStateStale:
			summary.Stale++
		case HealthStatePruneEligible:
			summary.PruneEligible++
		}
		switch entry.Outcome.Kind {
		case DeletionOutcomeDeleted:
			summary.Deleted++
		case DeletionOutcomeFailed:
			summary.Failed++
		}
	}
	return summary
}
