package layout

import (
	"context"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"typesim/internal/types"
)

// ModeReport is the size, alignment and padding loss of a type under one
// packing mode. Loss is measured against the packed size.
type ModeReport struct {
	Mode  Mode
	Size  int
	Align int
	Loss  int
}

// Report bundles the layout of one type under every packing mode.
type Report struct {
	Name string
	Kind types.Kind

	// Atomic-only: the stored representation.
	Atomic *types.Atomic
	// Struct and union: referenced names in declaration order.
	Members []string
	// Struct-only: member order chosen by the optimized search.
	Ordering []string

	Modes []ModeReport
}

// For returns the entry for mode, or a zero ModeReport if absent.
func (r Report) For(mode Mode) ModeReport {
	for _, m := range r.Modes {
		if m.Mode == mode {
			return m
		}
	}
	return ModeReport{}
}

// Loss returns how many bytes the named type wastes under mode compared
// with its packed size.
//
// For unions the comparison is against the variants that reach the
// union's size under mode; among those, the largest packed size is used.
func (e *LayoutEngine) Loss(name string, mode Mode) (int, error) {
	var (
		loss int
		err  error
	)
	e.view(func(w *walker) {
		loss = w.loss(name, mode)
		err = w.failure()
	})
	if err != nil {
		return 0, err
	}
	return loss, nil
}

func (w *walker) loss(name string, mode Mode) int {
	size := w.layoutOf(name, mode).Size
	v, ok := w.tbl.Lookup(name)
	if !ok || w.err != nil {
		return 0
	}
	if v.Kind != types.KindUnion {
		return size - w.layoutOf(name, ModePacked).Size
	}

	biggestPacked := 0
	for _, variant := range v.Union.Variants {
		if w.layoutOf(variant, mode).Size != size {
			continue
		}
		biggestPacked = maxInt(biggestPacked, w.layoutOf(variant, ModePacked).Size)
	}
	return size - biggestPacked
}

// Describe computes the full report for the named type.
func (e *LayoutEngine) Describe(name string) (Report, error) {
	var (
		rep Report
		err error
	)
	e.view(func(w *walker) {
		rep = w.describe(name)
		err = w.failure()
	})
	if err != nil {
		return Report{}, err
	}
	return rep, nil
}

func (w *walker) describe(name string) Report {
	v, ok := w.tbl.Lookup(name)
	if !ok {
		w.fail(&types.TypeError{Kind: types.ErrTypeDoesNotExist, Name: name})
		return Report{}
	}
	rep := Report{
		Name:    name,
		Kind:    v.Kind,
		Members: slices.Clone(v.Refs()),
		Modes:   make([]ModeReport, 0, 3),
	}
	if v.Kind == types.KindAtomic {
		a := *v.Atomic
		rep.Atomic = &a
	}
	for _, mode := range Modes() {
		l := w.layoutOf(name, mode)
		rep.Modes = append(rep.Modes, ModeReport{
			Mode:  mode,
			Size:  l.Size,
			Align: l.Align,
			Loss:  w.loss(name, mode),
		})
		if mode == ModeOptimized && v.Kind == types.KindStruct {
			rep.Ordering = slices.Clone(l.Order)
		}
	}
	return rep
}

// DescribeAll describes every registered type, in registration order.
// Reports are computed concurrently by at most workers goroutines
// (GOMAXPROCS when workers <= 0). The first error cancels the rest.
func (e *LayoutEngine) DescribeAll(ctx context.Context, workers int) ([]Report, error) {
	names := e.Types.Names()
	out := make([]Report, len(names))
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep, err := e.Describe(name)
			if err != nil {
				return err
			}
			out[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
