package directive

import (
	"sort"
	"strings"
)

// tag is one scanned markup tag occurrence. Names and attribute keys
// are lower-cased; matching is case-insensitive throughout.
type tag struct {
	name        string
	attrs       map[string]string
	selfClosing bool
	closing     bool
	start, end  int // byte span in the scanned text, end exclusive
}

// element is a paired open/close tag (or a self-closing tag) with its
// inner text and full byte span.
type element struct {
	name       string
	attrs      map[string]string
	inner      string
	start, end int
}

func isNameStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9') || c == '_' || c == '-'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// parseTagAt scans one tag starting at the '<' at offset i. It returns
// false for anything that is not a fully well-formed tag, including
// unterminated tags and attributes with unquoted or unclosed values.
func parseTagAt(s string, i int) (tag, bool) {
	j := i + 1
	t := tag{start: i}

	if j < len(s) && s[j] == '/' {
		t.closing = true
		j++
	}

	nameStart := j
	for j < len(s) && isNameChar(s[j]) {
		j++
	}
	if j == nameStart || !isNameStart(s[nameStart]) {
		return tag{}, false
	}
	t.name = strings.ToLower(s[nameStart:j])

	if t.closing {
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		if j >= len(s) || s[j] != '>' {
			return tag{}, false
		}
		t.end = j + 1
		return t, true
	}

	for {
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		if j >= len(s) {
			return tag{}, false
		}
		switch s[j] {
		case '>':
			t.end = j + 1
			return t, true
		case '/':
			if j+1 < len(s) && s[j+1] == '>' {
				t.selfClosing = true
				t.end = j + 2
				return t, true
			}
			return tag{}, false
		case '<':
			return tag{}, false
		}

		// Attribute.
		attrStart := j
		for j < len(s) && isNameChar(s[j]) {
			j++
		}
		if j == attrStart {
			return tag{}, false
		}
		key := strings.ToLower(s[attrStart:j])

		for j < len(s) && isSpace(s[j]) {
			j++
		}
		if j >= len(s) || s[j] != '=' {
			// Bare attribute with no value.
			if t.attrs == nil {
				t.attrs = make(map[string]string)
			}
			t.attrs[key] = ""
			continue
		}
		j++
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		if j >= len(s) || s[j] != '"' {
			return tag{}, false
		}
		j++
		valStart := j
		for j < len(s) && s[j] != '"' {
			if s[j] == '<' || s[j] == '>' {
				return tag{}, false
			}
			j++
		}
		if j >= len(s) {
			return tag{}, false
		}
		if t.attrs == nil {
			t.attrs = make(map[string]string)
		}
		t.attrs[key] = s[valStart:j]
		j++
	}
}

// nextTag finds the first well-formed tag at or after from whose
// lower-cased name satisfies match. Malformed candidates are skipped.
func nextTag(s string, from int, match func(name string) bool) (tag, bool) {
	for i := from; i < len(s); i++ {
		if s[i] != '<' {
			continue
		}
		t, ok := parseTagAt(s, i)
		if !ok {
			continue
		}
		if match(t.name) {
			return t, true
		}
	}
	return tag{}, false
}

// nextElement finds the first complete element at or after from whose
// name satisfies match. Open tags with no matching close are skipped;
// a self-closing tag is an element with empty inner text.
func nextElement(s string, from int, match func(name string) bool) (element, bool) {
	pos := from
	for {
		open, ok := nextTag(s, pos, match)
		if !ok {
			return element{}, false
		}
		if open.closing {
			pos = open.end
			continue
		}
		if open.selfClosing {
			return element{
				name:  open.name,
				attrs: open.attrs,
				start: open.start,
				end:   open.end,
			}, true
		}

		closeTag, ok := nextTag(s, open.end, func(name string) bool { return name == open.name })
		for ok && !closeTag.closing {
			closeTag, ok = nextTag(s, closeTag.end, func(name string) bool { return name == open.name })
		}
		if !ok {
			// Unclosed element: not a directive, keep scanning.
			pos = open.end
			continue
		}
		return element{
			name:  open.name,
			attrs: open.attrs,
			inner: s[open.end:closeTag.start],
			start: open.start,
			end:   closeTag.end,
		}, true
	}
}

// removeSpans deletes the given [start,end) spans from s.
func removeSpans(s string, spans [][2]int) string {
	if len(spans) == 0 {
		return s
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })

	var sb strings.Builder
	prev := 0
	for _, sp := range spans {
		if sp[0] < prev {
			continue
		}
		sb.WriteString(s[prev:sp[0]])
		prev = sp[1]
	}
	sb.WriteString(s[prev:])
	return sb.String()
}
