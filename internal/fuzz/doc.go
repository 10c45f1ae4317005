// Package fuzztests houses Go fuzz harnesses for the command interpreter
// and the session driver. They feed arbitrary lines through parsing,
// registration and layout, and fail on panics, hangs or broken layout
// invariants.
package fuzztests
