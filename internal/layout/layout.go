// Package layout computes size, alignment and padding loss of registered
// types under the unpacked, packed and optimized packing modes.
package layout

import (
	"slices"

	"typesim/internal/types"
)

// TypeLayout is the layout of a type under one packing mode.
type TypeLayout struct {
	Size  int
	Align int

	// Struct-only: member names in the order they are placed. Equal to the
	// declaration order except under ModeOptimized.
	Order []string
}

// LayoutEngine computes memory layouts for the types of one registry.
// It is safe for concurrent use. Create it with New; a LayoutEngine
// without a cache still answers queries but memoises nothing.
type LayoutEngine struct {
	Types *types.Registry

	cache *cache
}

// New creates a LayoutEngine reading definitions from reg.
func New(reg *types.Registry) *LayoutEngine {
	return &LayoutEngine{
		Types: reg,
		cache: newCache(),
	}
}

// Strategy is one packing mode's pair of layout operations.
type Strategy interface {
	Mode() Mode
	// Size returns the size of v in bytes under this mode.
	Size(v types.Variant) (int, error)
	// Align returns the alignment of v in bytes under this mode.
	Align(v types.Variant) (int, error)
}

// Strategy returns the strategy implementing mode. It panics on an
// unknown mode.
func (e *LayoutEngine) Strategy(mode Mode) Strategy {
	if !mode.valid() {
		panic("layout: unknown packing mode " + mode.String())
	}
	return modeStrategy{e: e, mode: mode}
}

type modeStrategy struct {
	e    *LayoutEngine
	mode Mode
}

func (s modeStrategy) Mode() Mode { return s.mode }

func (s modeStrategy) Size(v types.Variant) (int, error) {
	l, err := s.e.layoutOfVariant(v, s.mode)
	return l.Size, err
}

func (s modeStrategy) Align(v types.Variant) (int, error) {
	l, err := s.e.layoutOfVariant(v, s.mode)
	return l.Align, err
}

// LayoutOf computes and caches the layout of the named type.
func (e *LayoutEngine) LayoutOf(name string, mode Mode) (TypeLayout, error) {
	var (
		out TypeLayout
		err error
	)
	e.view(func(w *walker) {
		out = w.layoutOf(name, mode)
		err = w.failure()
	})
	if err != nil {
		return TypeLayout{Size: 0, Align: 1}, err
	}
	out.Order = slices.Clone(out.Order)
	return out, nil
}

// SizeOf returns the size of the named type in bytes.
func (e *LayoutEngine) SizeOf(name string, mode Mode) (int, error) {
	l, err := e.LayoutOf(name, mode)
	return l.Size, err
}

// AlignOf returns the alignment requirement of the named type in bytes.
func (e *LayoutEngine) AlignOf(name string, mode Mode) (int, error) {
	l, err := e.LayoutOf(name, mode)
	return l.Align, err
}

// OptimalLayout returns the member ordering of s with the smallest padded
// size, and that size. Among equally small orderings the first one in
// enumeration order wins. Every permutation is tried, so the cost grows
// as n! in the member count.
func (e *LayoutEngine) OptimalLayout(s *types.Struct) ([]string, int, error) {
	if s == nil || len(s.Members) == 0 {
		return nil, 0, nil
	}
	var (
		order []string
		size  int
		err   error
	)
	e.view(func(w *walker) {
		order, size = w.optimalLayout(s)
		err = w.failure()
	})
	if err != nil {
		return nil, 0, err
	}
	return slices.Clone(order), size, nil
}

func (e *LayoutEngine) layoutOfVariant(v types.Variant, mode Mode) (TypeLayout, error) {
	if !mode.valid() {
		return TypeLayout{Size: 0, Align: 1}, errUnknownMode(mode)
	}
	if !v.Valid() {
		return TypeLayout{Size: 0, Align: 1}, &types.TypeError{Kind: types.ErrInvalidVariant}
	}
	var (
		out TypeLayout
		err error
	)
	e.view(func(w *walker) {
		out = w.compute(v, mode)
		err = w.failure()
	})
	if err != nil {
		return TypeLayout{Size: 0, Align: 1}, err
	}
	out.Order = slices.Clone(out.Order)
	return out, nil
}

// view runs fn with a walker bound to a consistent registry snapshot.
func (e *LayoutEngine) view(fn func(w *walker)) {
	e.Types.View(func(tbl types.Table) {
		fn(&walker{tbl: tbl, cache: e.cache})
	})
}
