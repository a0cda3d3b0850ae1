package branches

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/branchhealth/internal/gitrepo"
)

const (
	readerOpenMessageConstant            = "Opened repository"
	readerTrunkMessageConstant           = "Resolved trunk"
	readerBranchMessageConstant          = "Enumerated branch"
	readerSkippedSymbolicMessageConstant = "Skipped symbolic reference"
	logFieldRepositoryConstant           = "repository"
	logFieldBranchConstant               = "branch"
	logFieldReferenceConstant            = "reference"
	logFieldRemoteConstant               = "remote"
	logFieldScopeConstant                = "scope"
	logFieldTipConstant                  = "tip"
	logFieldMergedConstant               = "merged"
	logFieldDecisionConstant             = "decision"
	logFieldReasonConstant               = "reason"
	logFieldStateConstant                = "state"
	openRepositoryErrorTemplateConstant  = "open repository %s: %w"
	listBranchesErrorTemplateConstant    = "enumerate branches: %w"
	resolveTrunkErrorTemplateConstant    = "resolve trunk %s: %w"
	mergeStatusErrorTemplateConstant     = "check merge status of %s: %w"
	referencePathSeparatorConstant       = "/"
	trunkNotFoundDescriptionTemplate     = "%s (tried %s)"
	trunkCandidatesJoinSeparatorConstant = ", "
)

// RefStore is the read side of a git repository used by the Reader.
type RefStore interface {
	ResolveRepositoryRoot(executionContext context.Context, repositoryPath string) (string, error)
	ListRemotes(executionContext context.Context, repositoryPath string) ([]string, error)
	ListReferences(executionContext context.Context, repositoryPath string, namespaces ...string) ([]gitrepo.ReferenceRecord, error)
	ResolveCommit(executionContext context.Context, repositoryPath string, reference string) (string, bool, error)
	IsAncestor(executionContext context.Context, repositoryPath string, ancestor string, descendant string) (bool, error)
}

// Repository is an opened repository handle.
type Repository struct {
	Root string
}

// Reader enumerates branches of a repository. It never mutates the repository.
type Reader struct {
	refStore RefStore
	logger   *zap.Logger
}

// NewReader constructs a Reader.
func NewReader(refStore RefStore, logger *zap.Logger) (*Reader, error) {
	if refStore == nil {
		return nil, ErrRefStoreNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{refStore: refStore, logger: logger}, nil
}

// Open resolves the repository containing repositoryPath.
func (reader *Reader) Open(executionContext context.Context, repositoryPath string) (Repository, error) {
	root, resolveError := reader.refStore.ResolveRepositoryRoot(executionContext, repositoryPath)
	if resolveError != nil {
		if errors.Is(resolveError, gitrepo.ErrNotRepository) || errors.Is(resolveError, gitrepo.ErrRepositoryPathRequired) {
			return Repository{}, fmt.Errorf(repositoryNotFoundErrorTemplateConstant, ErrRepositoryNotFound, repositoryPath)
		}
		return Repository{}, fmt.Errorf(openRepositoryErrorTemplateConstant, repositoryPath, resolveError)
	}

	reader.logger.Debug(readerOpenMessageConstant, zap.String(logFieldRepositoryConstant, root))
	return Repository{Root: root}, nil
}

// ListBranches enumerates the branches selected by scope together with their tip commit time and
// whether they are merged into trunk. Results are ordered newest first, ties by qualified name.
func (reader *Reader) ListBranches(executionContext context.Context, repository Repository, scope ScopeFilter, trunkName string) ([]Branch, error) {
	remotes, remotesError := reader.remotesForScope(executionContext, repository, scope)
	if remotesError != nil {
		return nil, remotesError
	}

	trunkTip, trunkError := reader.resolveTrunk(executionContext, repository, scope, trunkName, remotes)
	if trunkError != nil {
		return nil, trunkError
	}

	records, listError := reader.refStore.ListReferences(executionContext, repository.Root, namespacesForScope(scope)...)
	if listError != nil {
		return nil, fmt.Errorf(listBranchesErrorTemplateConstant, listError)
	}

	branches := make([]Branch, 0, len(records))
	for _, record := range records {
		if record.IsSymbolic() {
			reader.logger.Debug(readerSkippedSymbolicMessageConstant, zap.String(logFieldReferenceConstant, record.Reference))
			continue
		}

		name, branchScope, recognized := splitReference(record.Reference, remotes)
		if !recognized {
			continue
		}

		merged, mergedError := reader.refStore.IsAncestor(executionContext, repository.Root, record.ObjectName, trunkTip)
		if mergedError != nil {
			return nil, fmt.Errorf(mergeStatusErrorTemplateConstant, record.Reference, mergedError)
		}

		branch := Branch{
			Name:              name,
			Scope:             branchScope,
			QualifiedName:     QualifyBranchName(name, branchScope),
			Reference:         record.Reference,
			TipHash:           record.ObjectName,
			LastCommitTime:    record.CommitterTime,
			IsMergedIntoTrunk: merged,
		}
		reader.logger.Debug(
			readerBranchMessageConstant,
			zap.String(logFieldBranchConstant, branch.QualifiedName),
			zap.String(logFieldScopeConstant, branch.Scope.String()),
			zap.Time(logFieldTipConstant, branch.LastCommitTime),
			zap.Bool(logFieldMergedConstant, branch.IsMergedIntoTrunk),
		)
		branches = append(branches, branch)
	}

	SortBranches(branches)
	return branches, nil
}

// SortBranches orders branches newest first; equal commit times fall back to qualified name.
func SortBranches(branches []Branch) {
	sort.SliceStable(branches, func(left int, right int) bool {
		leftTime := branches[left].LastCommitTime
		rightTime := branches[right].LastCommitTime
		if !leftTime.Equal(rightTime) {
			return leftTime.After(rightTime)
		}
		return branches[left].QualifiedName < branches[right].QualifiedName
	})
}

func (reader *Reader) remotesForScope(executionContext context.Context, repository Repository, scope ScopeFilter) ([]string, error) {
	if scope.Kind == ScopeFilterLocalOnly {
		return nil, nil
	}

	remotes, listError := reader.refStore.ListRemotes(executionContext, repository.Root)
	if listError != nil {
		return nil, fmt.Errorf(listBranchesErrorTemplateConstant, listError)
	}

	if scope.Kind != ScopeFilterSingleRemote {
		return remotes, nil
	}

	for _, remote := range remotes {
		if remote == scope.RemoteName {
			return []string{remote}, nil
		}
	}
	return nil, fmt.Errorf(remoteNotFoundErrorTemplateConstant, ErrRemoteNotFound, scope.RemoteName)
}

func (reader *Reader) resolveTrunk(executionContext context.Context, repository Repository, scope ScopeFilter, trunkName string, remotes []string) (string, error) {
	candidates := []string{gitrepo.LocalBranchNamespaceConstant + trunkName}
	if scope.Kind != ScopeFilterLocalOnly {
		for _, remote := range remotes {
			candidates = append(candidates, gitrepo.RemoteTrackingNamespaceConstant+remote+referencePathSeparatorConstant+trunkName)
		}
	}

	for _, candidate := range candidates {
		objectName, exists, resolveError := reader.refStore.ResolveCommit(executionContext, repository.Root, candidate)
		if resolveError != nil {
			return "", fmt.Errorf(resolveTrunkErrorTemplateConstant, trunkName, resolveError)
		}
		if exists {
			reader.logger.Debug(readerTrunkMessageConstant, zap.String(logFieldReferenceConstant, candidate), zap.String(logFieldTipConstant, objectName))
			return objectName, nil
		}
	}

	description := fmt.Sprintf(trunkNotFoundDescriptionTemplate, trunkName, strings.Join(candidates, trunkCandidatesJoinSeparatorConstant))
	return "", fmt.Errorf(trunkNotFoundErrorTemplateConstant, ErrTrunkNotFound, description)
}

func namespacesForScope(scope ScopeFilter) []string {
	switch scope.Kind {
	case ScopeFilterSingleRemote:
		return []string{gitrepo.RemoteTrackingNamespaceConstant + scope.RemoteName + referencePathSeparatorConstant}
	case ScopeFilterAllRemotesAndLocal:
		return []string{gitrepo.LocalBranchNamespaceConstant, gitrepo.RemoteTrackingNamespaceConstant}
	default:
		return []string{gitrepo.LocalBranchNamespaceConstant}
	}
}

// splitReference derives the short name and scope of a branch reference. Remote names are matched
// against the configured remotes, longest first, so remotes containing slashes resolve correctly.
func splitReference(reference string, remotes []string) (string, BranchScope, bool) {
	if strings.HasPrefix(reference, gitrepo.LocalBranchNamespaceConstant) {
		name := strings.TrimPrefix(reference, gitrepo.LocalBranchNamespaceConstant)
		return name, LocalScope(), len(name) > 0
	}

	if !strings.HasPrefix(reference, gitrepo.RemoteTrackingNamespaceConstant) {
		return "", BranchScope{}, false
	}

	remainder := strings.TrimPrefix(reference, gitrepo.RemoteTrackingNamespaceConstant)
	orderedRemotes := append([]string{}, remotes...)
	sort.SliceStable(orderedRemotes, func(left int, right int) bool {
		return len(orderedRemotes[left]) > len(orderedRemotes[right])
	})
	for _, remote := range orderedRemotes {
		prefix := remote + referencePathSeparatorConstant
		if strings.HasPrefix(remainder, prefix) && len(remainder) > len(prefix) {
			return strings.TrimPrefix(remainder, prefix), RemoteScope(remote), true
		}
	}

	separatorIndex := strings.Index(remainder, referencePathSeparatorConstant)
	if separatorIndex <= 0 || separatorIndex == len(remainder)-1 {
		return "", BranchScope{}, false
	}
	return remainder[separatorIndex+1:], RemoteScope(remainder[:separatorIndex]), true
}
