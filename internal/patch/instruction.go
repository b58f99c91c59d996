// Package patch extracts SEARCH/REPLACE edit blocks from model replies and
// applies them to a document, reporting which lines of the result changed.
package patch

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Delimiters of the edit-block grammar. They must match the follow-up prompt
// byte for byte.
const (
	SearchMarker  = "<<<<<<< SEARCH"
	DividerMarker = "======="
	ReplaceMarker = ">>>>>>> REPLACE"
)

// Instruction is one search/replace pair taken from a model reply.
type Instruction struct {
	// Search is the exact text expected in the document. Empty or
	// whitespace-only means "insert at the start of the document".
	Search string
	// Replace is the text that takes its place. Empty means deletion.
	Replace string
}

// IsInsertion reports whether the instruction prepends Replace to the document.
func (in Instruction) IsInsertion() bool {
	return strings.TrimSpace(in.Search) == ""
}

// Range is a 1-based inclusive line interval in the edited document.
// It encodes to JSON as a two element array.
type Range struct {
	Start int
	End   int
}

func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.Start, r.End})
}

func (r *Range) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("line range must have 2 elements, got %d", len(pair))
	}
	r.Start, r.End = pair[0], pair[1]
	return nil
}

// Result is the outcome of applying a batch of instructions.
type Result struct {
	Document string
	// Changes holds one range per matched instruction, in application order.
	Changes []Range
	// Unmatched holds the indexes of instructions whose search text was not found.
	Unmatched []int
	// Ambiguous holds the indexes of instructions whose search text occurred
	// more than once; only the first occurrence was replaced.
	Ambiguous []int
}
