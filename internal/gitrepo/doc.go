// Package gitrepo contains helpers for interrogating and manipulating Git repositories.
//
// RepositoryManager resolves repository roots, lists remotes and branch
// references with their tip commit metadata, answers ancestry questions, reads
// boolean repository configuration, and removes local or remote-tracking
// branch references. Every operation shells out to git through a GitExecutor.
package gitrepo
