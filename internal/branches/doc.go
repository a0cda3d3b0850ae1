// Package branches classifies branch health and plans safe pruning.
//
// Reader enumerates branch references through a RefStore, Classify assigns a
// HealthState from the tip commit age, Planner turns classified branches into a
// PrunePlan and optionally executes it, and Service runs the whole pass for one
// repository and returns a Report.
package branches
