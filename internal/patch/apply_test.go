package patch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		ins       []Instruction
		wantDoc   string
		wantRange []Range
	}{
		{
			name:      "insertion at start",
			doc:       "B\n",
			ins:       []Instruction{{Search: "", Replace: "A"}},
			wantDoc:   "A\nB\n",
			wantRange: []Range{{1, 1}},
		},
		{
			name:      "whitespace-only search inserts",
			doc:       "B",
			ins:       []Instruction{{Search: " \n\t", Replace: "A\nA2"}},
			wantDoc:   "A\nA2\nB",
			wantRange: []Range{{1, 2}},
		},
		{
			name:      "replace first occurrence only",
			doc:       "x\nx\n",
			ins:       []Instruction{{Search: "x", Replace: "y"}},
			wantDoc:   "y\nx\n",
			wantRange: []Range{{1, 1}},
		},
		{
			name:      "deletion",
			doc:       "a\nb\nc\n",
			ins:       []Instruction{{Search: "b\n", Replace: ""}},
			wantDoc:   "a\nc\n",
			wantRange: []Range{{2, 2}},
		},
		{
			name:      "round trip heading",
			doc:       "<body>\n<h1>Old</h1>\n</body>",
			ins:       []Instruction{{Search: "<h1>Old</h1>", Replace: "<h1>New</h1>"}},
			wantDoc:   "<body>\n<h1>New</h1>\n</body>",
			wantRange: []Range{{2, 2}},
		},
		{
			name:      "multi-line replacement range",
			doc:       "<ul>\n<li>1</li>\n</ul>\n",
			ins:       []Instruction{{Search: "<li>1</li>", Replace: "<li>1</li>\n<li>2</li>\n<li>3</li>"}},
			wantDoc:   "<ul>\n<li>1</li>\n<li>2</li>\n<li>3</li>\n</ul>\n",
			wantRange: []Range{{2, 4}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Apply(tt.doc, tt.ins)
			assert.Equal(t, tt.wantDoc, res.Document)
			assert.Equal(t, tt.wantRange, res.Changes)
			assert.Empty(t, res.Unmatched)
		})
	}
}

func TestApply_UnmatchedIsSkipped(t *testing.T) {
	res := Apply("a\n", []Instruction{{Search: "zzz", Replace: "q"}})

	assert.Equal(t, "a\n", res.Document)
	assert.Empty(t, res.Changes)
	assert.Equal(t, []int{0}, res.Unmatched)
}

func TestApply_SequentialDependency(t *testing.T) {
	doc := "<title>Draft</title>\n"
	first := Instruction{Search: "Draft", Replace: "Shop"}
	second := Instruction{Search: "<title>Shop</title>", Replace: "<title>Shop | Home</title>"}

	isolated := Apply(doc, []Instruction{second})
	assert.Equal(t, doc, isolated.Document)
	assert.Equal(t, []int{0}, isolated.Unmatched)

	both := Apply(doc, []Instruction{first, second})
	assert.Equal(t, "<title>Shop | Home</title>\n", both.Document)
	assert.Equal(t, []Range{{1, 1}, {1, 1}}, both.Changes)
	assert.Empty(t, both.Unmatched)
}

func TestApply_MixedBatchReportsIndexes(t *testing.T) {
	doc := "one\ntwo\nthree\n"
	res := Apply(doc, []Instruction{
		{Search: "two", Replace: "2"},
		{Search: "four", Replace: "4"},
		{Search: "three", Replace: "3"},
	})

	assert.Equal(t, "one\n2\n3\n", res.Document)
	assert.Equal(t, []Range{{2, 2}, {3, 3}}, res.Changes)
	assert.Equal(t, []int{1}, res.Unmatched)
}

func TestApply_AmbiguousMatchStillReplacesFirst(t *testing.T) {
	res := Apply("<p>hi</p>\n<p>hi</p>\n", []Instruction{{Search: "<p>hi</p>", Replace: "<p>hello</p>"}})

	assert.Equal(t, "<p>hello</p>\n<p>hi</p>\n", res.Document)
	assert.Equal(t, []int{0}, res.Ambiguous)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	ins := []Instruction{{Search: "a", Replace: "b"}}
	doc := "a"

	_ = Apply(doc, ins)
	assert.Equal(t, "a", doc)
	assert.Equal(t, Instruction{Search: "a", Replace: "b"}, ins[0])
}

func TestApply_ExtractedBlocks(t *testing.T) {
	doc := "<body>\n  <h1>Old Title</h1>\n  <p>This paragraph will be deleted.</p>\n</body>\n"
	reply := strings.Join([]string{
		"Some explanation...",
		SearchMarker,
		"  <h1>Old Title</h1>",
		DividerMarker,
		"  <h1>New Title</h1>",
		ReplaceMarker,
		SearchMarker,
		"  <p>This paragraph will be deleted.</p>",
		DividerMarker,
		ReplaceMarker,
	}, "\n")

	res := Apply(doc, Extract(reply))

	assert.Equal(t, "<body>\n  <h1>New Title</h1>\n</body>\n", res.Document)
	assert.Equal(t, []Range{{1, 3}, {2, 3}}, res.Changes)
	assert.Empty(t, res.Unmatched)
}

func TestLineDiff(t *testing.T) {
	out := LineDiff("a\nb\n", "a\nc\n")
	assert.Contains(t, out, "b")
	assert.Contains(t, out, "c")

	ins, del := ChangedCharacters("abc", "abXc")
	assert.Equal(t, 1, ins)
	assert.Equal(t, 0, del)
}
