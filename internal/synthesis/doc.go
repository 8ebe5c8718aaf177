// Package synthesis turns a set of normalized papers into a structured
// literature review.
//
// The flow is strictly sequential:
//
//	BuildContext -> BuildPrompt -> Invoker.Invoke -> Validate
//
// Invoke never returns an error. A failed, panicking or overdue model call
// yields an Outcome carrying a diagnostic, and Validate turns any Outcome
// into a SummaryDocument whose eight fields are always present.
package synthesis
