package layout

import (
	"errors"

	"typesim/internal/combin"
	"typesim/internal/types"
)

// walker resolves member names against one registry snapshot. The first
// failure is remembered and later lookups short-circuit.
type walker struct {
	tbl   types.Table
	cache *cache
	err   error
}

func (w *walker) failure() error { return w.err }

func (w *walker) fail(err error) TypeLayout {
	if w.err == nil {
		w.err = err
	}
	return TypeLayout{Size: 0, Align: 1}
}

// layoutOf returns the cached layout of name, computing it on a miss.
// Registry definitions cannot reference themselves, so the recursion
// always bottoms out at atomics.
func (w *walker) layoutOf(name string, mode Mode) TypeLayout {
	if w.err != nil {
		return TypeLayout{Size: 0, Align: 1}
	}
	if !mode.valid() {
		return w.fail(errUnknownMode(mode))
	}
	key := cacheKey{Name: name, Mode: mode}
	if cached, ok := w.cache.get(key); ok {
		return cached
	}
	v, ok := w.tbl.Lookup(name)
	if !ok {
		return w.fail(&types.TypeError{Kind: types.ErrTypeDoesNotExist, Name: name})
	}
	l := w.compute(v, mode)
	if w.err != nil {
		w.nameOverflow(name)
		return l
	}
	w.cache.put(key, &l)
	return l
}

// nameOverflow records name on an overflow that no inner type claimed.
func (w *walker) nameOverflow(name string) {
	var le *LayoutError
	if errors.As(w.err, &le) && le.Kind == LayoutErrOverflow && le.Name == "" {
		le.Name = name
	}
}

func (w *walker) compute(v types.Variant, mode Mode) TypeLayout {
	switch v.Kind {
	case types.KindAtomic:
		return TypeLayout{Size: v.Atomic.Size, Align: v.Atomic.Align}
	case types.KindStruct:
		return rulesFor(mode).structLayout(w, v.Struct, mode)
	case types.KindUnion:
		return w.unionLayout(v.Union, mode)
	default:
		return w.fail(&types.TypeError{Kind: types.ErrInvalidVariant})
	}
}

// structRules is the per-mode part of the layout computation. Atomics and
// unions are handled identically by every mode.
type structRules interface {
	structLayout(w *walker, s *types.Struct, mode Mode) TypeLayout
}

func rulesFor(mode Mode) structRules {
	switch mode {
	case ModePacked:
		return packedRules{}
	case ModeOptimized:
		return optimizedRules{}
	default:
		return unpackedRules{}
	}
}

// unpackedRules places members in declaration order, padding each to its
// own alignment. The struct takes the alignment of its first member.
type unpackedRules struct{}

func (unpackedRules) structLayout(w *walker, s *types.Struct, mode Mode) TypeLayout {
	if len(s.Members) == 0 {
		return TypeLayout{Size: 0, Align: 1}
	}
	members := make([]TypeLayout, len(s.Members))
	for i, m := range s.Members {
		members[i] = w.layoutOf(m, mode)
	}
	if w.err != nil {
		return TypeLayout{Size: 0, Align: 1}
	}
	size, err := paddedSize(members, nil)
	if err != nil {
		return w.fail(arithError(mode, err))
	}
	return TypeLayout{
		Size:  size,
		Align: members[0].Align,
		Order: s.Members,
	}
}

// packedRules sums member sizes with no padding. Alignment is still the
// first member's.
type packedRules struct{}

func (packedRules) structLayout(w *walker, s *types.Struct, mode Mode) TypeLayout {
	if len(s.Members) == 0 {
		return TypeLayout{Size: 0, Align: 1}
	}
	size := 0
	align := 1
	for i, m := range s.Members {
		ml := w.layoutOf(m, mode)
		if i == 0 {
			align = ml.Align
		}
		next, err := combin.Add(size, ml.Size)
		if err != nil {
			return w.fail(arithError(mode, err))
		}
		size = next
	}
	if w.err != nil {
		return TypeLayout{Size: 0, Align: 1}
	}
	return TypeLayout{Size: size, Align: align, Order: s.Members}
}

// optimizedRules pads like unpackedRules over the best member ordering.
type optimizedRules struct{}

func (optimizedRules) structLayout(w *walker, s *types.Struct, _ Mode) TypeLayout {
	order, size := w.optimalLayout(s)
	if len(order) == 0 {
		return TypeLayout{Size: 0, Align: 1}
	}
	first := w.layoutOf(order[0], ModeOptimized)
	return TypeLayout{Size: size, Align: first.Align, Order: order}
}

// optimalLayout tries every ordering of the members of s, lexicographic
// over member indices, and keeps the first with the smallest padded size.
// Orderings whose size overflows are skipped; if all of them do, the
// struct overflows.
func (w *walker) optimalLayout(s *types.Struct) ([]string, int) {
	n := len(s.Members)
	if n == 0 {
		return nil, 0
	}
	members := make([]TypeLayout, n)
	for i, m := range s.Members {
		members[i] = w.layoutOf(m, ModeOptimized)
	}
	if w.err != nil {
		return nil, 0
	}

	best := -1
	bestOrder := make([]int, n)
	combin.Each(n, func(order []int) bool {
		size, err := paddedSize(members, order)
		if err != nil {
			return true
		}
		if best < 0 || size < best {
			best = size
			copy(bestOrder, order)
		}
		return true
	})
	if best < 0 {
		w.fail(arithError(ModeOptimized, combin.ErrOverflow))
		return nil, 0
	}

	names := make([]string, n)
	for i, idx := range bestOrder {
		names[i] = s.Members[idx]
	}
	return names, best
}

// paddedSize places members sequentially, rounding the running offset up
// to each member's alignment. A nil order means declaration order.
func paddedSize(members []TypeLayout, order []int) (int, error) {
	pos := 0
	place := func(m TypeLayout) error {
		start, err := roundUp(pos, m.Align)
		if err != nil {
			return err
		}
		pos, err = combin.Add(start, m.Size)
		return err
	}
	if order == nil {
		for _, m := range members {
			if err := place(m); err != nil {
				return 0, err
			}
		}
		return pos, nil
	}
	for _, idx := range order {
		if err := place(members[idx]); err != nil {
			return 0, err
		}
	}
	return pos, nil
}

// unionLayout takes the largest variant size and the lcm of the variant
// alignments, folded pairwise over adjacent variants from left to right.
// A union with one variant has no pair to fold and gets alignment 1.
func (w *walker) unionLayout(u *types.Union, mode Mode) TypeLayout {
	variants := make([]TypeLayout, len(u.Variants))
	size := 0
	for i, name := range u.Variants {
		variants[i] = w.layoutOf(name, mode)
		size = maxInt(size, variants[i].Size)
	}
	if w.err != nil {
		return TypeLayout{Size: 0, Align: 1}
	}
	align := 1
	for i := 0; i+1 < len(variants); i++ {
		pair, err := combin.Lcm(variants[i].Align, variants[i+1].Align)
		if err == nil {
			align, err = combin.Lcm(align, pair)
		}
		if err != nil {
			return w.fail(arithError(mode, err))
		}
	}
	return TypeLayout{Size: size, Align: align}
}

func roundUp(n, align int) (int, error) {
	if align <= 1 {
		return n, nil
	}
	r := n % align
	if r == 0 {
		return n, nil
	}
	return combin.Add(n, align-r)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
