// Package cli constructs the git-branchhealth command-line interface. It wires
// the Cobra root command, the layered configuration loader, and the zap logger,
// then hands the resolved settings to the branch health command builder.
package cli
