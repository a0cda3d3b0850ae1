// Package execshell provides structured helpers for invoking git.
//
// ShellExecutor wraps a CommandRunner with lifecycle reporting, OSCommandRunner
// executes processes through os/exec, and CommandMessageFormatter turns the git
// invocations issued by the branch health tooling into readable log messages.
package execshell
