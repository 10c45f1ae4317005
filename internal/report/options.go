// Package report renders layout reports and errors for humans and tools.
package report

// PrettyOpts configures human-readable output.
type PrettyOpts struct {
	Color bool
	// ShowOrdering prints the optimized member order for structs.
	ShowOrdering bool
}

// JSONOpts configures JSON output.
type JSONOpts struct {
	Indent bool
}
