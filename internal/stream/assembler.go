// Package stream assembles a full HTML document from streamed model output.
package stream

import "strings"

const (
	StartToken = "<!DOCTYPE html>"
	EndToken   = "</html>"

	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// Assembler accumulates chunks of a streamed reply. It is a plain fold over
// the chunks and is not safe for concurrent use.
type Assembler struct {
	buf  strings.Builder
	done bool
}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Write appends a chunk and reports whether the end token has now been seen.
func (a *Assembler) Write(chunk string) bool {
	if a.done {
		return true
	}
	prev := a.buf.Len()
	a.buf.WriteString(chunk)

	// Only the tail that could contain a newly completed end token is scanned.
	from := prev - len(EndToken) + 1
	if from < 0 {
		from = 0
	}
	if strings.Contains(a.buf.String()[from:], EndToken) {
		_, rest, _ := SplitThinking(a.buf.String())
		a.done = strings.Contains(rest, EndToken)
	}
	return a.done
}

// Done reports whether the end token has been received.
func (a *Assembler) Done() bool {
	return a.done
}

// Raw returns everything received so far.
func (a *Assembler) Raw() string {
	return a.buf.String()
}

// Thinking returns the reasoning section emitted before the document, if any,
// and whether it is still open.
func (a *Assembler) Thinking() (string, bool) {
	thinking, _, open := SplitThinking(a.buf.String())
	return thinking, open
}

// Partial returns the best renderable document so far. Structural tags left
// open by a cut-off stream are closed for display. ok is false until the
// start token has arrived.
func (a *Assembler) Partial() (doc string, ok bool) {
	if a.done {
		return a.Final(), true
	}
	_, rest, _ := SplitThinking(a.buf.String())
	i := strings.Index(rest, StartToken)
	if i == -1 {
		return "", false
	}
	doc = rest[i:]
	if strings.Contains(doc, "<head>") && !strings.Contains(doc, "</head>") {
		doc += "\n</head>"
	}
	if strings.Contains(doc, "<body") && !strings.Contains(doc, "</body>") {
		doc += "\n</body>"
	}
	if !strings.Contains(doc, EndToken) {
		doc += "\n" + EndToken
	}
	return doc, true
}

// Final returns the document from the start token through the last end
// token. Without a complete document it returns the raw reply minus any
// reasoning section.
func (a *Assembler) Final() string {
	_, rest, _ := SplitThinking(a.buf.String())
	start := strings.Index(rest, StartToken)
	end := strings.LastIndex(rest, EndToken)
	if start == -1 || end == -1 || end < start {
		return rest
	}
	return rest[start : end+len(EndToken)]
}

// SplitThinking separates a leading <think>...</think> section from the rest
// of buf. open is true while the closing tag has not arrived yet.
func SplitThinking(buf string) (thinking, rest string, open bool) {
	trimmed := strings.TrimLeft(buf, " \t\r\n")
	if !strings.HasPrefix(trimmed, thinkOpen) {
		return "", buf, false
	}
	body := trimmed[len(thinkOpen):]
	end := strings.Index(body, thinkClose)
	if end == -1 {
		return strings.TrimSpace(body), "", true
	}
	return strings.TrimSpace(body[:end]), body[end+len(thinkClose):], false
}
