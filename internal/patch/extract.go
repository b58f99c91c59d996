package patch

import "strings"

// Scanner walks a reply and yields edit blocks one at a time, in the manner
// of bufio.Scanner. Incomplete trailing blocks end the scan silently.
type Scanner struct {
	reply string
	pos   int
	cur   Instruction
}

// NewScanner returns a Scanner reading from reply.
func NewScanner(reply string) *Scanner {
	return &Scanner{reply: reply}
}

// Scan advances to the next complete block. It returns false once no further
// open, divider and close markers can be found in order.
func (s *Scanner) Scan() bool {
	if s.pos >= len(s.reply) {
		return false
	}
	rest := s.reply[s.pos:]

	open := strings.Index(rest, SearchMarker)
	if open == -1 {
		s.pos = len(s.reply)
		return false
	}
	searchStart := open + len(SearchMarker)

	divider := strings.Index(rest[searchStart:], DividerMarker)
	if divider == -1 {
		s.pos = len(s.reply)
		return false
	}
	divider += searchStart
	replaceStart := divider + len(DividerMarker)

	end := strings.Index(rest[replaceStart:], ReplaceMarker)
	if end == -1 {
		s.pos = len(s.reply)
		return false
	}
	end += replaceStart

	s.cur = Instruction{
		Search:  rest[searchStart:divider],
		Replace: rest[replaceStart:end],
	}
	s.pos += end + len(ReplaceMarker)
	return true
}

// Instruction returns the block found by the most recent call to Scan.
func (s *Scanner) Instruction() Instruction {
	return s.cur
}

// Extract returns every complete edit block in reply, in textual order.
// A reply without blocks yields nil.
func Extract(reply string) []Instruction {
	var out []Instruction
	sc := NewScanner(reply)
	for sc.Scan() {
		out = append(out, sc.Instruction())
	}
	return out
}
