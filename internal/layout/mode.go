package layout

import (
	"fmt"
	"strings"
)

// Mode selects a packing strategy.
type Mode uint8

const (
	// ModeUnpacked pads every member to its natural alignment, in
	// declaration order.
	ModeUnpacked Mode = iota + 1
	// ModePacked inserts no padding at all.
	ModePacked
	// ModeOptimized pads like ModeUnpacked but reorders struct members to
	// minimise the result.
	ModeOptimized
)

// Modes returns every packing mode in report order.
func Modes() []Mode {
	return []Mode{ModeUnpacked, ModePacked, ModeOptimized}
}

// String returns the string representation of Mode.
func (m Mode) String() string {
	switch m {
	case ModeUnpacked:
		return "unpacked"
	case ModePacked:
		return "packed"
	case ModeOptimized:
		return "optimized"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unpacked", "natural":
		return ModeUnpacked, nil
	case "packed":
		return ModePacked, nil
	case "optimized", "optimised", "optimal":
		return ModeOptimized, nil
	default:
		return 0, fmt.Errorf("invalid packing mode: %q (expected: unpacked|packed|optimized)", s)
	}
}

func (m Mode) valid() bool {
	return m >= ModeUnpacked && m <= ModeOptimized
}
