package veche

// Draw selects the next event from the catalog.
//
// In deterministic mode it returns the entry at index mod catalog size and the
// following index. Otherwise it picks a uniformly random entry using roll, a sample
// in [0,1), and returns index unchanged.
func Draw(c *Catalog, deterministic bool, index int, roll float64) (Event, int) {
	n := c.Len()
	if deterministic {
		i := wrapIndex(index, n)
		return c.At(i), wrapIndex(i+1, n)
	}
	return c.At(pickIndex(roll, n)), index
}

// wrapIndex maps any integer onto 0..n-1.
func wrapIndex(i, n int) int {
	return ((i % n) + n) % n
}

// pickIndex scales a sample in [0,1) onto 0..n-1.
func pickIndex(roll float64, n int) int {
	i := int(roll * float64(n))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
