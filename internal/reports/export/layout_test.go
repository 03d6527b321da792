package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows(n int) [][]string {
	out := make([][]string, n)
	for i := range out {
		out[i] = []string{"cell"}
	}
	return out
}

func TestLayoutTracksFinalYAcrossTables(t *testing.T) {
	l := NewLayout("Report", A4Portrait)
	assert.Equal(t, 76.0, l.FinalY)

	l.AddTable(Table{Heading: "A", Columns: []string{"c"}, Rows: rows(3)})
	// 76 + heading 24 + header row 18 + 3 rows*18 = 172, then gap 16.
	assert.Equal(t, 188.0, l.FinalY)

	l.AddTable(Table{Heading: "B", Columns: []string{"c"}, Rows: rows(1)})
	pages := l.Pages()
	require.Len(t, pages, 1)
	require.Len(t, pages[0].Blocks, 2)
	assert.Equal(t, 188.0, pages[0].Blocks[1].StartY)
	assert.Equal(t, 248.0, pages[0].Blocks[1].EndY)
}

func TestLayoutBreaksLongTables(t *testing.T) {
	l := NewLayout("Report", A4Portrait)
	l.AddTable(Table{Heading: "Users", Columns: []string{"c"}, Rows: rows(50)})

	pages := l.Pages()
	require.Len(t, pages, 2)
	assert.Len(t, pages[0].Blocks[0].Rows, 38)
	assert.Equal(t, 802.0, pages[0].Blocks[0].EndY)

	second := pages[1].Blocks[0]
	assert.True(t, second.Continued)
	assert.Len(t, second.Rows, 12)
	assert.Equal(t, 76.0, second.StartY)
	assert.Equal(t, 334.0, second.EndY)
	assert.Equal(t, 350.0, l.FinalY)
	assert.Equal(t, 2, pages[1].Number)
	assert.Equal(t, "Report", pages[1].Title)
}

func TestLayoutMovesTableThatCannotStartOnPage(t *testing.T) {
	l := NewLayout("Report", A4Portrait)
	l.AddTable(Table{Heading: "A", Columns: []string{"c"}, Rows: rows(36)})
	// 76+42+648 = 766, +16 gap = 782: no room for heading, header and a row.
	assert.Equal(t, 782.0, l.FinalY)

	l.AddTable(Table{Heading: "B", Columns: []string{"c"}, Rows: rows(2)})
	pages := l.Pages()
	require.Len(t, pages, 2)
	assert.Len(t, pages[0].Blocks, 1)
	assert.Equal(t, "B", pages[1].Blocks[0].Heading)
	assert.False(t, pages[1].Blocks[0].Continued)
}

func TestLayoutEmptyTableKeepsHeader(t *testing.T) {
	l := NewLayout("Report", A4Portrait)
	l.AddTable(Table{Heading: "Empty", Columns: []string{"c"}})
	block := l.Pages()[0].Blocks[0]
	assert.Empty(t, block.Rows)
	assert.Equal(t, 118.0, block.EndY)
}
