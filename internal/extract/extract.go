// Package extract recovers structured values from noisy generator output.
//
// Generators wrap JSON in code fences, surround it with prose, nest braces
// inside string literals and leave trailing commas. JSON handles all of
// these without regular expressions: a string-aware bracket scanner finds
// every balanced block, and only blocks that actually parse are accepted.
package extract

import (
	"sort"
	"strings"

	"github.com/goccy/go-json"

	fgerrors "github.com/randalmurphal/cognigen/pkg/flowgraph/errors"
)

const fence = "```"

// JSON returns the structured value contained in raw.
//
// Steps, in order: strip a leading fence line and a trailing fence; parse
// the whole text; parse the balanced {...} or [...] blocks, longest first;
// remove trailing commas and retry both. A single-element array wrapping
// one object is unwrapped to that object. When nothing parses the error is
// an *errors.ExtractionError carrying raw unchanged.
func JSON(raw string) (any, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, &fgerrors.ExtractionError{Raw: raw, Reason: "empty output"}
	}

	if v, ok := tryParse(cleaned); ok {
		return v, nil
	}

	if repaired := stripTrailingCommas(cleaned); repaired != cleaned {
		if v, ok := tryParse(repaired); ok {
			return v, nil
		}
	}

	return nil, &fgerrors.ExtractionError{Raw: raw, Reason: "no parseable JSON value found"}
}

// Object is JSON restricted to object results.
func Object(raw string) (Payload, error) {
	v, err := JSON(raw)
	if err != nil {
		return Payload{}, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return Payload{}, &fgerrors.ExtractionError{Raw: raw, Reason: "expected a JSON object"}
	}
	return NewPayload(m), nil
}

// maxParseCandidates bounds how many balanced blocks tryParse attempts.
const maxParseCandidates = 64

// tryParse tries a direct parse, then the longest balanced candidates.
func tryParse(text string) (any, bool) {
	if v, ok := parse(text); ok {
		return unwrap(v), true
	}
	candidates := Candidates(text)
	if len(candidates) > maxParseCandidates {
		candidates = candidates[:maxParseCandidates]
	}
	for _, c := range candidates {
		if v, ok := parse(c); ok {
			return unwrap(v), true
		}
	}
	return nil, false
}

func parse(text string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case map[string]any, []any:
		return v, true
	default:
		return nil, false
	}
}

func unwrap(v any) any {
	arr, ok := v.([]any)
	if !ok || len(arr) != 1 {
		return v
	}
	if obj, ok := arr[0].(map[string]any); ok {
		return obj
	}
	return v
}

// stripFences removes a fence line at the start and a fence at the end.
// Fences elsewhere are left alone.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, fence) {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimLeft(strings.TrimPrefix(s, fence), "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
		}
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, fence) {
		s = strings.TrimSpace(strings.TrimSuffix(s, fence))
	}
	return s
}

// Candidates returns every balanced {...} or [...] block in text, longest
// first. Brackets inside string literals do not count toward balance, and a
// block whose closer does not match its opener is discarded.
//
// Each scan starts at an unresolved opener and settles every opener it
// meets outside a string literal, so text is walked a bounded number of
// times rather than once per opener.
func Candidates(text string) []string {
	resolved := make([]bool, len(text))
	var blocks []block
	for start := 0; start < len(text); start++ {
		if resolved[start] || (text[start] != '{' && text[start] != '[') {
			continue
		}
		blocks = scanBlocks(text, start, resolved, blocks)
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		if li, lj := blocks[i].end-blocks[i].start, blocks[j].end-blocks[j].start; li != lj {
			return li > lj
		}
		return blocks[i].start < blocks[j].start
	})
	out := make([]string, len(blocks))
	for i, bl := range blocks {
		out[i] = text[bl.start:bl.end]
	}
	return out
}

type block struct{ start, end int }

type opener struct {
	pos    int
	closer byte
}

// scanBlocks walks text from the opener at start, appending every block
// that closes. Openers seen outside strings are marked resolved: they close
// in this walk or fail with it on a mismatched closer or the end of text.
func scanBlocks(text string, start int, resolved []bool, blocks []block) []block {
	stack := make([]opener, 0, 16)
	inString, escaped := false, false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			resolved[i] = true
			stack = append(stack, opener{pos: i, closer: '}'})
		case '[':
			resolved[i] = true
			stack = append(stack, opener{pos: i, closer: ']'})
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1].closer != c {
				return blocks
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			blocks = append(blocks, block{start: top.pos, end: i + 1})
			if len(stack) == 0 {
				return blocks
			}
		}
	}
	return blocks
}

// stripTrailingCommas removes commas that directly precede a closing
// bracket or brace, ignoring whitespace between them and string contents.
func stripTrailingCommas(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inString, escaped := false, false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			b.WriteByte(c)
			continue
		}

		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}

		if c == ',' {
			j := i + 1
			for j < len(text) && isSpace(text[j]) {
				j++
			}
			if j < len(text) && (text[j] == '}' || text[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
