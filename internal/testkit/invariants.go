// Package testkit holds layout invariant checks shared by tests and fuzz
// harnesses.
package testkit

import (
	"fmt"
	"slices"

	"typesim/internal/layout"
	"typesim/internal/types"
)

// CheckLayoutInvariants describes name and verifies properties every
// layout must satisfy:
//  1. every size and alignment is positive
//  2. no mode is smaller than packed, so loss is never negative
//  3. a packed struct is exactly the sum of its packed members
//  4. the optimized ordering is a permutation of the members
//  5. a second query returns the same report
func CheckLayoutInvariants(e *layout.LayoutEngine, name string) error {
	rep, err := e.Describe(name)
	if err != nil {
		return err
	}
	packed := rep.For(layout.ModePacked)
	for _, m := range rep.Modes {
		if m.Size <= 0 || m.Align <= 0 {
			return fmt.Errorf("%s %s: non-positive layout size=%d align=%d", name, m.Mode, m.Size, m.Align)
		}
		if m.Size < packed.Size {
			return fmt.Errorf("%s %s: size %d below packed size %d", name, m.Mode, m.Size, packed.Size)
		}
		if m.Loss < 0 || m.Loss > m.Size {
			return fmt.Errorf("%s %s: loss %d out of range", name, m.Mode, m.Loss)
		}
	}

	if rep.Kind == types.KindStruct {
		sum := 0
		for _, member := range rep.Members {
			size, err := e.SizeOf(member, layout.ModePacked)
			if err != nil {
				return err
			}
			sum += size
		}
		if sum != packed.Size {
			return fmt.Errorf("%s: packed size %d, members sum to %d", name, packed.Size, sum)
		}

		got := slices.Clone(rep.Ordering)
		want := slices.Clone(rep.Members)
		slices.Sort(got)
		slices.Sort(want)
		if !slices.Equal(got, want) {
			return fmt.Errorf("%s: optimized order %v is not a permutation of %v", name, rep.Ordering, rep.Members)
		}
	}

	again, err := e.Describe(name)
	if err != nil {
		return err
	}
	if !slices.Equal(again.Modes, rep.Modes) || !slices.Equal(again.Ordering, rep.Ordering) {
		return fmt.Errorf("%s: repeated query differs", name)
	}
	return nil
}

// CheckAll runs CheckLayoutInvariants over every registered type.
func CheckAll(e *layout.LayoutEngine) error {
	for _, name := range e.Types.Names() {
		if err := CheckLayoutInvariants(e, name); err != nil {
			return err
		}
	}
	return nil
}
