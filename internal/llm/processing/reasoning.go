package processing

import "strings"

type tagPair struct {
	open, close string
}

// Reasoning models wrap their chain of thought in one of these tags.
var reasoningTags = []tagPair{
	{"<think>", "</think>"},
	{"<thinking>", "</thinking>"},
}

// SplitReasoning separates reasoning blocks from the visible answer. Any
// number of blocks is accepted and an unclosed block runs to the end of
// text. Both results are trimmed.
func SplitReasoning(text string) (content string, reasoning string) {
	var answer, thought strings.Builder

	cursor := 0
	for cursor < len(text) {
		start, tag := nextOpen(text[cursor:])
		if start == -1 {
			answer.WriteString(text[cursor:])
			break
		}

		answer.WriteString(text[cursor : cursor+start])
		cursor += start + len(tag.open)

		end := strings.Index(text[cursor:], tag.close)
		if end == -1 {
			appendBlock(&thought, text[cursor:])
			break
		}

		appendBlock(&thought, text[cursor:cursor+end])
		cursor += end + len(tag.close)
	}

	return strings.TrimSpace(answer.String()), strings.TrimSpace(thought.String())
}

func nextOpen(s string) (int, tagPair) {
	best := -1
	var found tagPair
	for _, tag := range reasoningTags {
		if i := strings.Index(s, tag.open); i != -1 && (best == -1 || i < best) {
			best, found = i, tag
		}
	}
	return best, found
}

func appendBlock(b *strings.Builder, block string) {
	block = strings.TrimSpace(block)
	if block == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(block)
}
