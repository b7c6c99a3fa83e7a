// Package blocks implements the query/answer block protocol: a fenced,
// human-editable text format that embeds a question and its generated
// answer directly inside a note as a locatable, re-editable unit.
//
// A query block is a fenced region tagged "quill"; an answer block is a
// fenced region tagged "quill-answer". A query and its answer are joined
// by exactly one blank line:
//
//	```quill
//	What is 2+2?
//	```
//
//	```quill-answer
//	4
//	```
//
// Blocks are located with an explicit two-state scanner (seeking an open
// fence, then seeking a close fence) rather than pattern matching, so
// malformed and nested fences have defined behavior: the first well-formed
// block wins, an unterminated open fence is not a block, and any fence
// line inside an open block closes it.
package blocks

import "strings"

const (
	fence = "```"

	// QueryTag labels a query fence.
	QueryTag = "quill"

	// AnswerTag labels an answer fence.
	AnswerTag = "quill-answer"

	// Placeholder is the query text used when a new block is inserted
	// with no selection.
	Placeholder = "Type your question here"
)

// Answer is the located span of an answer block attached to a query.
// Start points at the two newlines that join it to its query block; End
// points just past the closing fence delimiter.
type Answer struct {
	Start int
	End   int
	Text  string
}

// Block is a located query block. It is a view over the document text at
// a point in time, recomputed on every scan, never persisted.
type Block struct {
	// Start is the byte offset of the opening fence line.
	Start int

	// End is the byte offset just past the closing fence delimiter.
	End int

	// Query is the trimmed query text between the fences.
	Query string

	// Attached is the answer block joined to this query by exactly one
	// blank line, or nil.
	Attached *Answer
}

type scanState int

const (
	seekingOpen scanState = iota
	seekingClose
)

// Find locates all well-formed query blocks in document order.
func Find(text string) []Block {
	var out []Block

	state := seekingOpen
	blockStart := 0
	contentStart := 0

	offset := 0
	for offset <= len(text) {
		lineEnd := strings.IndexByte(text[offset:], '\n')
		nextOffset := len(text) + 1
		line := ""
		if lineEnd >= 0 {
			line = text[offset : offset+lineEnd]
			nextOffset = offset + lineEnd + 1
		} else {
			line = text[offset:]
		}
		trimmed := strings.TrimRight(line, " \t")

		switch state {
		case seekingOpen:
			if trimmed == fence+QueryTag {
				blockStart = offset
				contentStart = nextOffset
				state = seekingClose
			}
		case seekingClose:
			if strings.HasPrefix(trimmed, fence) {
				queryEnd := offset
				if queryEnd > contentStart {
					queryEnd-- // drop the newline before the close fence
				}
				if queryEnd < contentStart {
					queryEnd = contentStart
				}
				end := offset + len(trimmed)
				block := Block{
					Start: blockStart,
					End:   end,
					Query: strings.TrimSpace(text[contentStart:queryEnd]),
				}
				block.Attached = attachedAnswer(text, end)
				out = append(out, block)
				state = seekingOpen
			}
		}

		if nextOffset > len(text) {
			break
		}
		offset = nextOffset
	}

	// An open fence with no close is not a block.
	return out
}

// At returns the query block containing the cursor offset, testing the
// cursor against [Start, End) of each block in document order.
func At(text string, cursor int) (Block, bool) {
	for _, block := range Find(text) {
		if cursor >= block.Start && cursor < block.End {
			return block, true
		}
	}
	return Block{}, false
}

// attachedAnswer checks the text immediately following a query block's
// closing delimiter. The answer fence must be anchored at exactly two
// newlines; any other intervening content means no attached answer.
func attachedAnswer(text string, queryEnd int) *Answer {
	rest := text[queryEnd:]
	opener := "\n\n" + fence + AnswerTag + "\n"
	if !strings.HasPrefix(rest, opener) {
		return nil
	}

	contentStart := queryEnd + len(opener)
	offset := contentStart
	for offset <= len(text) {
		lineEnd := strings.IndexByte(text[offset:], '\n')
		nextOffset := len(text) + 1
		line := ""
		if lineEnd >= 0 {
			line = text[offset : offset+lineEnd]
			nextOffset = offset + lineEnd + 1
		} else {
			line = text[offset:]
		}
		trimmed := strings.TrimRight(line, " \t")

		if strings.HasPrefix(trimmed, fence) {
			contentEnd := offset
			if contentEnd > contentStart {
				contentEnd--
			}
			if contentEnd < contentStart {
				contentEnd = contentStart
			}
			return &Answer{
				Start: queryEnd,
				End:   offset + len(trimmed),
				Text:  text[contentStart:contentEnd],
			}
		}

		if nextOffset > len(text) {
			break
		}
		offset = nextOffset
	}

	// Unterminated answer fence: treat as unattached.
	return nil
}

// RenderAnswer renders an answer block with its two joining newlines.
func RenderAnswer(answer string) string {
	return "\n\n" + fence + AnswerTag + "\n" + answer + "\n" + fence
}

// Refresh computes the minimal replacement that inserts or replaces the
// answer of the query block containing the cursor. The second return is
// false when the cursor is in no query block. Repeating the operation
// with the same answer leaves the document unchanged.
func Refresh(text string, cursor int, answer string) (string, bool) {
	block, ok := At(text, cursor)
	if !ok {
		return text, false
	}

	rendered := RenderAnswer(answer)
	if block.Attached != nil {
		return text[:block.Attached.Start] + rendered + text[block.Attached.End:], true
	}
	return text[:block.End] + rendered + text[block.End:], true
}

// Insert replaces the selection [selStart, selEnd) with a brand-new query
// block, using the selected text as the query when the selection is
// non-empty and Placeholder otherwise. Fences only count on their own
// lines, so newlines are added around the block when the selection does
// not sit on line boundaries. It returns the updated document and the
// offset of the new block.
func Insert(text string, selStart, selEnd int) (string, int) {
	if selStart < 0 {
		selStart = 0
	}
	if selEnd > len(text) {
		selEnd = len(text)
	}
	if selEnd < selStart {
		selEnd = selStart
	}

	query := strings.TrimSpace(text[selStart:selEnd])
	if query == "" {
		query = Placeholder
	}

	prefix := ""
	if selStart > 0 && text[selStart-1] != '\n' {
		prefix = "\n"
	}
	suffix := ""
	if selEnd < len(text) && text[selEnd] != '\n' {
		suffix = "\n"
	}

	blockText := fence + QueryTag + "\n" + query + "\n" + fence
	updated := text[:selStart] + prefix + blockText + suffix + text[selEnd:]
	return updated, selStart + len(prefix)
}
