package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func block(search, replace string) string {
	return SearchMarker + "\n" + search + DividerMarker + "\n" + replace + ReplaceMarker
}

func TestExtract_NoOpenMarker(t *testing.T) {
	assert.Empty(t, Extract(""))
	assert.Empty(t, Extract("Sure! I changed nothing because nothing needed changing."))
	assert.Empty(t, Extract(DividerMarker+"\nfoo\n"+ReplaceMarker))
}

func TestExtract_SingleBlockKeepsAdjacentNewlines(t *testing.T) {
	reply := "Updating the title.\n" + block("<h1>Old</h1>\n", "<h1>New</h1>\n") + "\nDone."

	got := Extract(reply)
	require.Len(t, got, 1)
	assert.Equal(t, "\n<h1>Old</h1>\n", got[0].Search)
	assert.Equal(t, "\n<h1>New</h1>\n", got[0].Replace)
}

func TestExtract_OrderPreserved(t *testing.T) {
	reply := "First:\n" + block("a\n", "1\n") +
		"\nThen some prose with no markers.\n" + block("b\n", "2\n") +
		"\n" + block("c\n", "3\n")

	got := Extract(reply)
	require.Len(t, got, 3)
	assert.Equal(t, "\na\n", got[0].Search)
	assert.Equal(t, "\nb\n", got[1].Search)
	assert.Equal(t, "\nc\n", got[2].Search)
	assert.Equal(t, "\n3\n", got[2].Replace)
}

func TestExtract_TruncatedTrailingBlock(t *testing.T) {
	complete := block("a\n", "b\n")

	tests := []struct {
		name  string
		reply string
	}{
		{"open only", complete + "\n" + SearchMarker + "\nhalf"},
		{"missing close", complete + "\n" + SearchMarker + "\nx\n" + DividerMarker + "\ny"},
		{"cut inside close marker", complete + "\n" + SearchMarker + "\nx\n" + DividerMarker + "\ny\n>>>>>>> REP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.reply)
			require.Len(t, got, 1)
			assert.Equal(t, "\na\n", got[0].Search)
		})
	}
}

func TestExtract_EmptySearchAndReplace(t *testing.T) {
	reply := SearchMarker + "\n" + DividerMarker + "\n<meta charset=\"utf-8\">\n" + ReplaceMarker + "\n" +
		SearchMarker + "\n<p>gone</p>\n" + DividerMarker + "\n" + ReplaceMarker

	got := Extract(reply)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsInsertion())
	assert.False(t, got[1].IsInsertion())
	assert.Equal(t, "\n", got[1].Replace)
}

func TestScanner_StopsAfterLastBlock(t *testing.T) {
	sc := NewScanner(block("x\n", "y\n") + " trailing")

	require.True(t, sc.Scan())
	assert.Equal(t, "\ny\n", sc.Instruction().Replace)
	assert.False(t, sc.Scan())
	assert.False(t, sc.Scan())
}

func TestRange_JSON(t *testing.T) {
	var r Range
	require.NoError(t, r.UnmarshalJSON([]byte("[3,7]")))
	assert.Equal(t, Range{Start: 3, End: 7}, r)

	out, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, "[3,7]", string(out))

	assert.Error(t, r.UnmarshalJSON([]byte("[1]")))
}
