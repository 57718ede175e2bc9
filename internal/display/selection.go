package display

// Selection is the index of the selected row.
type Selection struct {
	Index int
}

// Next moves down one row, wrapping to the first. No-op when n is zero.
func (s *Selection) Next(n int) {
	if n == 0 {
		return
	}
	s.Clamp(n)
	s.Index = (s.Index + 1) % n
}

// Prev moves up one row, wrapping to the last. No-op when n is zero.
func (s *Selection) Prev(n int) {
	if n == 0 {
		return
	}
	s.Clamp(n)
	s.Index = (s.Index - 1 + n) % n
}

// First selects the first row.
func (s *Selection) First() {
	s.Index = 0
}

// Follow selects the last of n rows.
func (s *Selection) Follow(n int) {
	s.Index = max(n-1, 0)
}

// Clamp keeps the index inside [0, n).
func (s *Selection) Clamp(n int) {
	switch {
	case n == 0 || s.Index < 0:
		s.Index = 0
	case s.Index >= n:
		s.Index = n - 1
	}
}

// Window returns the half-open range of rows to show in height lines,
// keeping the selection centred until it reaches either end.
func (s Selection) Window(n, height int) (start, end int) {
	if height < 1 {
		height = 1
	}
	if n <= height {
		return 0, n
	}
	if s.Index >= height/2 {
		start = s.Index - height/2
	}
	if start+height > n {
		start = n - height
	}
	return start, start + height
}
