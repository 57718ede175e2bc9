package display

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(p Projection) []string {
	out := make([]string, len(p.Rows))
	for i, r := range p.Rows {
		out[i] = r.Text
	}
	return out
}

func TestProjectRowCount(t *testing.T) {
	for _, tc := range []struct {
		length, width, rows int
	}{
		{length: 1, width: 10, rows: 1},
		{length: 10, width: 10, rows: 1},
		{length: 11, width: 10, rows: 2},
		{length: 25, width: 5, rows: 5},
		{length: 26, width: 5, rows: 6},
		{length: 7, width: 1, rows: 7},
	} {
		p := Project([]string{strings.Repeat("x", tc.length)}, tc.width)
		assert.Equal(t, tc.rows, p.Len(), "length %d width %d", tc.length, tc.width)
		for _, r := range p.Rows {
			assert.LessOrEqual(t, r.Width, tc.width)
		}
	}
}

func TestProjectEmptyLinesProduceNoRows(t *testing.T) {
	p := Project([]string{"", "one", ""}, 10)
	require.Equal(t, 1, p.Len())
	assert.Equal(t, "one", p.Rows[0].Text)
	assert.Equal(t, 1, p.Rows[0].Entry)

	// Styling alone is not visible content.
	assert.Zero(t, Project([]string{"\x1b[31m\x1b[0m"}, 10).Len())
}

func TestProjectMultiLineEntry(t *testing.T) {
	p := Project([]string{"first\n\nsecond\n"}, 20)
	assert.Equal(t, []string{"first", "second"}, texts(p))
	for _, r := range p.Rows {
		assert.Equal(t, 0, r.Entry)
	}
}

func TestFollowSkipsTrailingBlankEntry(t *testing.T) {
	p := Project([]string{"one", "two", ""}, 10)

	var s Selection
	s.Follow(p.Len())
	assert.Equal(t, "two", p.Rows[s.Index].Text)
}

func TestProjectIsIdempotent(t *testing.T) {
	entries := []string{"\x1b[31mred text that wraps\x1b[0m", "plain", "日本語のテキスト"}
	assert.Equal(t, Project(entries, 7), Project(entries, 7))
}

func TestProjectEntryMapping(t *testing.T) {
	p := Project([]string{"aaaa", "bb", "cccccc"}, 3)
	var entries []int
	for _, r := range p.Rows {
		entries = append(entries, r.Entry)
	}
	assert.Equal(t, []int{0, 0, 1, 2, 2}, entries)
}

func TestProjectStyleSurvivesWrap(t *testing.T) {
	p := Project([]string{"\x1b[31mabcdef\x1b[0m"}, 3)
	require.Equal(t, 2, p.Len())

	assert.Equal(t, "\x1b[31mabc\x1b[0m", p.Rows[0].Text)
	assert.Equal(t, "\x1b[31mdef\x1b[0m", p.Rows[1].Text)
	assert.Equal(t, "abc", ansi.Strip(p.Rows[0].Text))
	assert.Equal(t, "def", ansi.Strip(p.Rows[1].Text))
}

func TestProjectStyleResetsBetweenEntries(t *testing.T) {
	p := Project([]string{"\x1b[1;32mok", "plain"}, 10)
	require.Equal(t, 2, p.Len())
	assert.Equal(t, "plain", p.Rows[1].Text)
}

func TestProjectStyleCarriesAcrossLines(t *testing.T) {
	p := Project([]string{"\x1b[33mone\ntwo\x1b[0m"}, 10)
	require.Equal(t, 2, p.Len())
	assert.True(t, strings.HasPrefix(p.Rows[1].Text, "\x1b[33m"))
}

func TestProjectDropsOtherEscapes(t *testing.T) {
	p := Project([]string{"\x1b[2Kab\x1b]0;title\x07cd\x1b[1Aef\r"}, 20)
	require.Equal(t, 1, p.Len())
	assert.Equal(t, "abcdef", p.Rows[0].Text)
	assert.Equal(t, 6, p.Rows[0].Width)
}

func TestProjectEscapeBeforeMultiByteRune(t *testing.T) {
	p := Project([]string{"a\x1béb\x1b[\u00e9c"}, 20)
	require.Equal(t, 1, p.Len())
	assert.True(t, utf8.ValidString(p.Rows[0].Text))
	assert.Equal(t, "abéc", p.Rows[0].Text)
}

func TestProjectExpandsTabs(t *testing.T) {
	p := Project([]string{"a\tb"}, 20)
	require.Equal(t, 1, p.Len())
	assert.Equal(t, "a"+strings.Repeat(" ", 7)+"b", p.Rows[0].Text)
	assert.Equal(t, 9, p.Rows[0].Width)
}

func TestProjectWideCharacters(t *testing.T) {
	p := Project([]string{"日本語"}, 4)
	assert.Equal(t, []string{"日本", "語"}, texts(p))
	assert.Equal(t, 4, p.Rows[0].Width)
	assert.Equal(t, 2, p.Rows[1].Width)

	// A cluster wider than the row still gets a row of its own.
	p = Project([]string{"日本"}, 1)
	assert.Equal(t, []string{"日", "本"}, texts(p))
}

func TestProjectKeepsGraphemeClusters(t *testing.T) {
	family := "👨‍👩‍👧"
	accent := "é"
	p := Project([]string{"ab" + family + accent}, 3)
	require.Equal(t, 2, p.Len())
	assert.Equal(t, "ab", p.Rows[0].Text)
	assert.Equal(t, family+accent, p.Rows[1].Text)
}

func TestProjectMinimumWidth(t *testing.T) {
	p := Project([]string{"abc"}, 0)
	assert.Equal(t, []string{"a", "b", "c"}, texts(p))
}

func TestSelectionWrapsAround(t *testing.T) {
	const n = 5
	var s Selection
	for range n {
		s.Next(n)
	}
	assert.Equal(t, 0, s.Index)

	for range n {
		s.Prev(n)
	}
	assert.Equal(t, 0, s.Index)

	s.Prev(n)
	assert.Equal(t, n-1, s.Index)
	s.Next(n)
	assert.Equal(t, 0, s.Index)
}

func TestSelectionZeroRows(t *testing.T) {
	s := Selection{Index: 3}
	s.Next(0)
	s.Prev(0)
	assert.Equal(t, 3, s.Index)

	s.Follow(0)
	assert.Equal(t, 0, s.Index)
}

func TestSelectionClampAfterShrink(t *testing.T) {
	s := Selection{Index: 9}
	s.Next(4)
	assert.Equal(t, 0, s.Index)

	s = Selection{Index: 9}
	s.Clamp(4)
	assert.Equal(t, 3, s.Index)
}

func TestFollowSelectsLastRowOfLatestEntry(t *testing.T) {
	entries := []string{"one", "two", "three is long"}
	p := Project(entries, 5)

	var s Selection
	s.Follow(p.Len())
	row := p.Rows[s.Index]
	assert.Equal(t, 2, row.Entry)
	assert.Equal(t, "ong", row.Text)
}

func TestSelectionWindow(t *testing.T) {
	for _, tc := range []struct {
		name          string
		index, n, h   int
		start, endRow int
	}{
		{name: "fits", index: 2, n: 4, h: 10, start: 0, endRow: 4},
		{name: "top", index: 1, n: 100, h: 10, start: 0, endRow: 10},
		{name: "centred", index: 50, n: 100, h: 10, start: 45, endRow: 55},
		{name: "bottom", index: 99, n: 100, h: 10, start: 90, endRow: 100},
		{name: "zero height", index: 3, n: 10, h: 0, start: 3, endRow: 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			start, end := Selection{Index: tc.index}.Window(tc.n, tc.h)
			assert.Equal(t, tc.start, start)
			assert.Equal(t, tc.endRow, end)
			assert.GreaterOrEqual(t, tc.index, start)
			assert.Less(t, tc.index, end)
		})
	}
}
