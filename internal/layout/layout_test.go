package layout_test

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"typesim/internal/combin"
	"typesim/internal/layout"
	"typesim/internal/types"
)

type def struct {
	name string
	v    types.Variant
}

func newEngine(t *testing.T, defs ...def) *layout.LayoutEngine {
	t.Helper()
	reg := types.NewRegistry()
	for _, d := range defs {
		if err := reg.Register(d.name, d.v); err != nil {
			t.Fatalf("register %s: %v", d.name, err)
		}
	}
	return layout.New(reg)
}

// intChar registers the worked example: int(4,4), char(1,4) and the two
// orderings of a struct over them.
func intChar(t *testing.T, extra ...def) *layout.LayoutEngine {
	t.Helper()
	base := []def{
		{"int", types.NewAtomic(4, 4)},
		{"char", types.NewAtomic(1, 4)},
		{"s1", types.NewStruct("int", "char")},
		{"s2", types.NewStruct("char", "int")},
	}
	return newEngine(t, append(base, extra...)...)
}

func expectLayout(t *testing.T, e *layout.LayoutEngine, name string, mode layout.Mode, size, align int) {
	t.Helper()
	l, err := e.LayoutOf(name, mode)
	if err != nil {
		t.Fatalf("%s/%v: unexpected error %v", name, mode, err)
	}
	if l.Size != size || l.Align != align {
		t.Fatalf("%s/%v: expected size=%d align=%d, got size=%d align=%d", name, mode, size, align, l.Size, l.Align)
	}
}

func TestStructSizes(t *testing.T) {
	e := intChar(t)

	// s1 is already well ordered: every mode gives the same size
	expectLayout(t, e, "s1", layout.ModeUnpacked, 5, 4)
	expectLayout(t, e, "s1", layout.ModePacked, 5, 4)
	expectLayout(t, e, "s1", layout.ModeOptimized, 5, 4)

	// s2 pads three bytes before int unless reordered
	expectLayout(t, e, "s2", layout.ModeUnpacked, 8, 4)
	expectLayout(t, e, "s2", layout.ModePacked, 5, 4)
	expectLayout(t, e, "s2", layout.ModeOptimized, 5, 4)

	l, _ := e.LayoutOf("s2", layout.ModeOptimized)
	if !reflect.DeepEqual(l.Order, []string{"int", "char"}) {
		t.Fatalf("expected optimized order [int char], got %v", l.Order)
	}
	l, _ = e.LayoutOf("s2", layout.ModeUnpacked)
	if !reflect.DeepEqual(l.Order, []string{"char", "int"}) {
		t.Fatalf("expected declaration order for unpacked, got %v", l.Order)
	}
}

func TestUnionSizeAndAlign(t *testing.T) {
	e := intChar(t,
		def{"u1", types.NewUnion("int", "int")},
		def{"u2", types.NewUnion("s2", "s1")},
	)
	for _, mode := range layout.Modes() {
		expectLayout(t, e, "u1", mode, 4, 4)
	}
	expectLayout(t, e, "u2", layout.ModeUnpacked, 8, 4)
	expectLayout(t, e, "u2", layout.ModePacked, 5, 4)
	expectLayout(t, e, "u2", layout.ModeOptimized, 5, 4)
}

func TestSingleVariantUnionHasAlignOne(t *testing.T) {
	e := intChar(t, def{"u", types.NewUnion("int")})
	for _, mode := range layout.Modes() {
		expectLayout(t, e, "u", mode, 4, 1)
	}
}

func TestUnionAlignFoldsEveryVariant(t *testing.T) {
	e := newEngine(t,
		def{"a2", types.NewAtomic(2, 2)},
		def{"a3", types.NewAtomic(3, 3)},
		def{"a4", types.NewAtomic(4, 4)},
		def{"u", types.NewUnion("a2", "a3", "a4")},
	)
	expectLayout(t, e, "u", layout.ModeUnpacked, 4, 12)
}

func TestStructAlignIsFirstMember(t *testing.T) {
	e := newEngine(t,
		def{"byte", types.NewAtomic(1, 1)},
		def{"double", types.NewAtomic(8, 8)},
		def{"s", types.NewStruct("byte", "double")},
	)
	// declared order: byte first, so alignment 1 despite the 8-aligned member
	expectLayout(t, e, "s", layout.ModeUnpacked, 16, 1)
	expectLayout(t, e, "s", layout.ModePacked, 9, 1)
	// winning order puts double first and takes its alignment
	expectLayout(t, e, "s", layout.ModeOptimized, 9, 8)
}

func TestOptimizedSearchThreeMembers(t *testing.T) {
	e := newEngine(t,
		def{"c", types.NewAtomic(1, 1)},
		def{"i", types.NewAtomic(4, 4)},
		def{"h", types.NewAtomic(2, 2)},
		def{"s", types.NewStruct("c", "i", "h")},
	)
	expectLayout(t, e, "s", layout.ModeUnpacked, 10, 1)
	expectLayout(t, e, "s", layout.ModePacked, 7, 1)
	expectLayout(t, e, "s", layout.ModeOptimized, 7, 4)

	l, _ := e.LayoutOf("s", layout.ModeOptimized)
	if !reflect.DeepEqual(l.Order, []string{"i", "h", "c"}) {
		t.Fatalf("expected order [i h c], got %v", l.Order)
	}
}

func TestOptimizedTieKeepsFirstOrdering(t *testing.T) {
	e := newEngine(t,
		def{"a", types.NewAtomic(4, 4)},
		def{"b", types.NewAtomic(4, 4)},
		def{"s", types.NewStruct("b", "a")},
	)
	l, err := e.LayoutOf("s", layout.ModeOptimized)
	if err != nil {
		t.Fatal(err)
	}
	if l.Size != 8 || !reflect.DeepEqual(l.Order, []string{"b", "a"}) {
		t.Fatalf("expected size 8 in declared order, got %d %v", l.Size, l.Order)
	}
}

func TestNestedStructsRecurseUnderSameMode(t *testing.T) {
	e := intChar(t,
		def{"byte", types.NewAtomic(1, 1)},
		def{"outer", types.NewStruct("byte", "s2")},
	)
	expectLayout(t, e, "outer", layout.ModeUnpacked, 12, 1)
	expectLayout(t, e, "outer", layout.ModePacked, 6, 1)
	expectLayout(t, e, "outer", layout.ModeOptimized, 6, 4)

	l, _ := e.LayoutOf("outer", layout.ModeOptimized)
	if !reflect.DeepEqual(l.Order, []string{"s2", "byte"}) {
		t.Fatalf("expected order [s2 byte], got %v", l.Order)
	}
}

func TestOptimalLayout(t *testing.T) {
	e := intChar(t)
	order, size, err := e.OptimalLayout(&types.Struct{Members: []string{"char", "int", "char"}})
	if err != nil {
		t.Fatal(err)
	}
	// every member is 4-aligned; both chars apart costs 9, both chars
	// together costs 12, and the declared order is the first 9
	if size != 9 {
		t.Fatalf("expected size 9, got %d (%v)", size, order)
	}
	if !reflect.DeepEqual(order, []string{"char", "int", "char"}) {
		t.Fatalf("unexpected order %v", order)
	}

	if _, _, err := e.OptimalLayout(&types.Struct{Members: []string{"int", "ghost"}}); !errors.Is(err, &types.TypeError{Kind: types.ErrTypeDoesNotExist, Name: "ghost"}) {
		t.Fatalf("expected TypeDoesNotExist(ghost), got %v", err)
	}
	if order, size, err := e.OptimalLayout(nil); err != nil || order != nil || size != 0 {
		t.Fatalf("nil struct: %v %d %v", order, size, err)
	}
}

func TestLoss(t *testing.T) {
	e := intChar(t,
		def{"u1", types.NewUnion("int", "int")},
		def{"u2", types.NewUnion("s2", "s1")},
	)
	cases := []struct {
		name string
		mode layout.Mode
		want int
	}{
		{"int", layout.ModeUnpacked, 0},
		{"s1", layout.ModeUnpacked, 0},
		{"s2", layout.ModeUnpacked, 3},
		{"s2", layout.ModePacked, 0},
		{"s2", layout.ModeOptimized, 0},
		{"u1", layout.ModeUnpacked, 0},
		{"u2", layout.ModeUnpacked, 3},
		{"u2", layout.ModePacked, 0},
		{"u2", layout.ModeOptimized, 0},
	}
	for _, tc := range cases {
		got, err := e.Loss(tc.name, tc.mode)
		if err != nil {
			t.Fatalf("loss %s/%v: %v", tc.name, tc.mode, err)
		}
		if got != tc.want {
			t.Errorf("loss %s/%v = %d, want %d", tc.name, tc.mode, got, tc.want)
		}
	}
}

func TestUnionLossUsesBestPackedAmongTiedVariants(t *testing.T) {
	e := intChar(t,
		def{"wide", types.NewAtomic(8, 4)},
		def{"u", types.NewUnion("s2", "wide")},
	)
	// unpacked: s2 and wide both reach 8; wide packs to 8, so nothing is lost
	got, err := e.Loss("u", layout.ModeUnpacked)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Fatalf("expected loss 0, got %d", got)
	}
}

func TestDescribe(t *testing.T) {
	e := intChar(t)
	rep, err := e.Describe("s2")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Name != "s2" || rep.Kind != types.KindStruct {
		t.Fatalf("unexpected header %+v", rep)
	}
	want := []layout.ModeReport{
		{Mode: layout.ModeUnpacked, Size: 8, Align: 4, Loss: 3},
		{Mode: layout.ModePacked, Size: 5, Align: 4, Loss: 0},
		{Mode: layout.ModeOptimized, Size: 5, Align: 4, Loss: 0},
	}
	if !reflect.DeepEqual(rep.Modes, want) {
		t.Fatalf("modes = %+v, want %+v", rep.Modes, want)
	}
	if !reflect.DeepEqual(rep.Ordering, []string{"int", "char"}) {
		t.Fatalf("ordering = %v", rep.Ordering)
	}
	if rep.For(layout.ModeUnpacked).Loss != 3 {
		t.Fatalf("For(unpacked) = %+v", rep.For(layout.ModeUnpacked))
	}

	atom, err := e.Describe("char")
	if err != nil {
		t.Fatal(err)
	}
	if atom.Atomic == nil || atom.Atomic.Size != 1 || atom.Atomic.Align != 4 {
		t.Fatalf("atomic payload = %+v", atom.Atomic)
	}
	if atom.Ordering != nil {
		t.Fatalf("atomic should have no ordering, got %v", atom.Ordering)
	}
}

func TestDescribeMissing(t *testing.T) {
	e := intChar(t)
	_, err := e.Describe("nope")
	var te *types.TypeError
	if !errors.As(err, &te) || te.Kind != types.ErrTypeDoesNotExist || te.Name != "nope" {
		t.Fatalf("expected TypeDoesNotExist(nope), got %v", err)
	}
}

func TestQueriesAreIdempotent(t *testing.T) {
	e := intChar(t, def{"u2", types.NewUnion("s2", "s1")})
	first, err := e.Describe("u2")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := e.Describe("u2")
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("describe changed between calls: %+v vs %+v", first, again)
		}
	}
}

func TestLayoutOfResultIsACopy(t *testing.T) {
	e := intChar(t)
	l, _ := e.LayoutOf("s2", layout.ModeOptimized)
	l.Order[0] = "mutated"
	again, _ := e.LayoutOf("s2", layout.ModeOptimized)
	if again.Order[0] != "int" {
		t.Fatalf("cached order mutated: %v", again.Order)
	}
}

func TestStrategies(t *testing.T) {
	e := intChar(t)
	v := types.NewStruct("char", "int")
	want := map[layout.Mode]int{
		layout.ModeUnpacked:  8,
		layout.ModePacked:    5,
		layout.ModeOptimized: 5,
	}
	for _, mode := range layout.Modes() {
		s := e.Strategy(mode)
		if s.Mode() != mode {
			t.Fatalf("strategy mode = %v, want %v", s.Mode(), mode)
		}
		size, err := s.Size(v)
		if err != nil {
			t.Fatal(err)
		}
		if size != want[mode] {
			t.Errorf("%v size = %d, want %d", mode, size, want[mode])
		}
		align, err := s.Align(v)
		if err != nil || align != 4 {
			t.Errorf("%v align = %d, %v", mode, align, err)
		}
	}

	_, err := e.Strategy(layout.ModePacked).Size(types.NewUnion("int", "ghost"))
	if !errors.Is(err, &types.TypeError{Kind: types.ErrTypeDoesNotExist, Name: "ghost"}) {
		t.Fatalf("expected TypeDoesNotExist(ghost), got %v", err)
	}
}

func TestUnknownMode(t *testing.T) {
	e := intChar(t)
	_, err := e.LayoutOf("int", layout.Mode(9))
	var lerr *layout.LayoutError
	if !errors.As(err, &lerr) || lerr.Kind != layout.LayoutErrUnknownMode {
		t.Fatalf("expected LayoutErrUnknownMode, got %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("Strategy with unknown mode should panic")
		}
	}()
	e.Strategy(layout.Mode(0))
}

func TestParseMode(t *testing.T) {
	for _, m := range layout.Modes() {
		got, err := layout.ParseMode(m.String())
		if err != nil || got != m {
			t.Fatalf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := layout.ParseMode("tight"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestDescribeAll(t *testing.T) {
	e := intChar(t, def{"u1", types.NewUnion("int", "int")})
	reps, err := e.DescribeAll(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(reps))
	for _, r := range reps {
		names = append(names, r.Name)
	}
	if !reflect.DeepEqual(names, []string{"int", "char", "s1", "s2", "u1"}) {
		t.Fatalf("unexpected order %v", names)
	}
	if reps[3].For(layout.ModeUnpacked).Size != 8 {
		t.Fatalf("s2 unpacked size = %d", reps[3].For(layout.ModeUnpacked).Size)
	}
}

func TestDescribeAllCancelled(t *testing.T) {
	e := intChar(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.DescribeAll(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestConcurrentQueriesAndRegistration(t *testing.T) {
	reg := types.NewRegistry()
	if err := reg.Register("int", types.NewAtomic(4, 4)); err != nil {
		t.Fatal(err)
	}
	e := layout.New(reg)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			if _, err := e.Describe("int"); err != nil {
				t.Errorf("describe: %v", err)
				return
			}
		}
	}()
	for _, name := range []string{"a", "b", "c", "d"} {
		if err := reg.Register(name, types.NewStruct("int", "int")); err != nil {
			t.Fatal(err)
		}
	}
	<-done
	expectLayout(t, e, "d", layout.ModeUnpacked, 8, 4)
}

func expectOverflow(t *testing.T, err error, name string) {
	t.Helper()
	var le *layout.LayoutError
	if !errors.As(err, &le) || le.Kind != layout.LayoutErrOverflow {
		t.Fatalf("expected overflow error, got %v", err)
	}
	if le.Name != name {
		t.Fatalf("overflow attributed to %q, want %q", le.Name, name)
	}
	if !layout.IsOverflow(err) || !errors.Is(err, combin.ErrOverflow) {
		t.Fatalf("overflow error does not unwrap: %v", err)
	}
}

func TestHugeAtomicsOverflowInsteadOfWrapping(t *testing.T) {
	e := newEngine(t,
		def{"a", types.NewAtomic(1, 9223372036854775783)},
		def{"b", types.NewAtomic(1, 9223372036854775643)},
		def{"u", types.NewUnion("a", "b")},
		def{"big", types.NewAtomic(math.MaxInt, 1)},
		def{"s", types.NewStruct("big", "big")},
		def{"outer", types.NewStruct("s")},
	)

	_, err := e.Describe("u")
	expectOverflow(t, err, "u")

	_, err = e.Describe("s")
	expectOverflow(t, err, "s")

	for _, mode := range layout.Modes() {
		_, err := e.LayoutOf("s", mode)
		expectOverflow(t, err, "s")
	}

	// the innermost overflowing type is named
	_, err = e.Describe("outer")
	expectOverflow(t, err, "s")

	// failures are not cached
	_, err = e.Describe("s")
	expectOverflow(t, err, "s")
}

func TestOptimizedSkipsOverflowingOrderings(t *testing.T) {
	e := newEngine(t,
		def{"x", types.NewAtomic(math.MaxInt-8, 1)},
		def{"y", types.NewAtomic(1, 16)},
		def{"xy", types.NewStruct("x", "y")},
	)

	_, err := e.LayoutOf("xy", layout.ModeUnpacked)
	expectOverflow(t, err, "xy")

	expectLayout(t, e, "xy", layout.ModePacked, math.MaxInt-7, 1)
	expectLayout(t, e, "xy", layout.ModeOptimized, math.MaxInt-7, 16)

	order, size, err := e.OptimalLayout(&types.Struct{Members: []string{"x", "y"}})
	if err != nil {
		t.Fatalf("OptimalLayout: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"y", "x"}) || size != math.MaxInt-7 {
		t.Fatalf("OptimalLayout = %v, %d", order, size)
	}
}

func TestLargeValuesThatFit(t *testing.T) {
	half := math.MaxInt / 2
	e := newEngine(t,
		def{"half", types.NewAtomic(half, 1)},
		def{"pair", types.NewStruct("half", "half")},
	)
	for _, mode := range layout.Modes() {
		expectLayout(t, e, "pair", mode, 2*half, 1)
	}
}

func TestEngineWithoutCache(t *testing.T) {
	reg := types.NewRegistry()
	for _, d := range []def{
		{"int", types.NewAtomic(4, 4)},
		{"char", types.NewAtomic(1, 4)},
		{"s2", types.NewStruct("char", "int")},
	} {
		if err := reg.Register(d.name, d.v); err != nil {
			t.Fatalf("register %s: %v", d.name, err)
		}
	}
	e := &layout.LayoutEngine{Types: reg}

	reps, err := e.DescribeAll(t.Context(), 4)
	if err != nil {
		t.Fatalf("DescribeAll: %v", err)
	}
	if len(reps) != 3 {
		t.Fatalf("got %d reports, want 3", len(reps))
	}
	expectLayout(t, e, "s2", layout.ModeUnpacked, 8, 4)
}
