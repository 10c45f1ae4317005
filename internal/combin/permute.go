package combin

// Permutations returns every ordering of items. Orderings are produced by
// backtracking: position 0 takes each unused element in index order, the
// suffix is filled recursively, then the choice is undone. The result is
// therefore lexicographic over index positions.
//
// An empty input yields an empty result (no orderings at all), not a single
// empty ordering. items is never modified.
func Permutations[T any](items []T) [][]T {
	n := len(items)
	if n == 0 {
		return [][]T{}
	}
	total, err := Factorial(n)
	if err != nil {
		total = 0
	}
	out := make([][]T, 0, total)
	Each(n, func(order []int) bool {
		p := make([]T, n)
		for i, idx := range order {
			p[i] = items[idx]
		}
		out = append(out, p)
		return true
	})
	return out
}

// IndexPermutations returns every ordering of 0..n-1.
func IndexPermutations(n int) [][]int {
	if n <= 0 {
		return [][]int{}
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return Permutations(idx)
}

// Each walks the index permutations of 0..n-1 in the same order as
// Permutations without materialising them. The slice passed to visit is
// reused between calls and must not be retained. Returning false from
// visit stops the walk. Nothing is visited for n <= 0.
func Each(n int, visit func(order []int) bool) {
	if n <= 0 || visit == nil {
		return
	}
	order := make([]int, 0, n)
	used := make([]bool, n)
	var walk func() bool
	walk = func() bool {
		if len(order) == n {
			return visit(order)
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			order = append(order, i)
			cont := walk()
			order = order[:len(order)-1]
			used[i] = false
			if !cont {
				return false
			}
		}
		return true
	}
	walk()
}
