// Package dependencies resolves the default collaborators command builders fall back to.
package dependencies

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/branchhealth/internal/execshell"
	"github.com/temirov/branchhealth/internal/gitrepo"
	"github.com/temirov/branchhealth/internal/ui"
)

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default. Human-readable
// logging routes command lifecycle events through the console event logger.
func ResolveGitExecutor(existing gitrepo.GitExecutor, logger *zap.Logger, humanReadableLogging bool) (gitrepo.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner, ResolveCommandEventObserver(logger, humanReadableLogging))
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveCommandEventObserver picks how git command lifecycle events are reported. A nil result keeps the
// executor's structured logging.
func ResolveCommandEventObserver(logger *zap.Logger, humanReadableLogging bool) execshell.CommandEventObserver {
	if logger == nil {
		return nil
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		return execshell.NoopCommandEventObserver{}
	}
	if humanReadableLogging {
		return ui.NewConsoleCommandEventLogger(logger)
	}
	return nil
}

// ResolveRepositoryManager constructs a repository manager backed by the executor.
func ResolveRepositoryManager(executor gitrepo.GitExecutor) (*gitrepo.RepositoryManager, error) {
	return gitrepo.NewRepositoryManager(executor)
}
