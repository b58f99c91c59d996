package patch

import "strings"

// Apply folds instructions over doc in order. Each instruction sees the
// result of the ones before it. An instruction whose search text is missing
// leaves the document untouched and is reported in Result.Unmatched.
func Apply(doc string, instructions []Instruction) Result {
	res := Result{Document: doc}
	for i, in := range instructions {
		if in.IsInsertion() {
			res.Document = in.Replace + "\n" + res.Document
			res.Changes = append(res.Changes, Range{Start: 1, End: lineCount(in.Replace)})
			continue
		}

		p := strings.Index(res.Document, in.Search)
		if p == -1 {
			res.Unmatched = append(res.Unmatched, i)
			continue
		}
		if strings.Contains(res.Document[p+1:], in.Search) {
			res.Ambiguous = append(res.Ambiguous, i)
		}

		start := strings.Count(res.Document[:p], "\n") + 1
		res.Changes = append(res.Changes, Range{
			Start: start,
			End:   start + lineCount(in.Replace) - 1,
		})
		res.Document = res.Document[:p] + in.Replace + res.Document[p+len(in.Search):]
	}
	return res
}

// lineCount is the number of pieces s splits into on "\n", so the empty
// string counts as one line.
func lineCount(s string) int {
	return strings.Count(s, "\n") + 1
}
