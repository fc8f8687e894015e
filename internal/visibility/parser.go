// Package visibility resolves per-viewer content tags embedded in narrative
// text and file bodies.
//
// Two tag families are understood:
//
//	target(name1, name2)[private content]
//	local(name)[private content]
//
// mark content only the listed viewers may see, and
//
//	hide[secret]
//
// marks content withheld from every player until the stored text itself is
// rewritten without the tag.
//
// Bracket matching is depth-counted rather than regex-based: a nested "[" in
// the span body increments a counter so inner brackets are never mistaken for
// the closing one. Malformed tags degrade to literal text; the scanner never
// drops content that follows a broken tag.
package visibility

import "strings"

// PrivateMarker prefixes a span rendered for one of its targets, so the
// client can tell private text apart from the shared narrative.
const PrivateMarker = "[PRIVATE] "

// Viewer identifies who content is rendered for. Spans match on either the
// display name or the user id. A zero Viewer is an anonymous or system
// viewer and never matches a targeted span.
type Viewer struct {
	ID   string
	Name string
}

func (v Viewer) matches(ident string) bool {
	if ident == "" {
		return false
	}
	if v.Name != "" && ident == v.Name {
		return true
	}
	return v.ID != "" && ident == v.ID
}

type span struct {
	idents  []string
	content string
	end     int
}

// ForViewer returns the part of text the viewer is authorized to see.
// Untagged text passes through verbatim, target/local spans naming the
// viewer are emitted with PrivateMarker, and spans naming someone else are
// removed without leaving a blank line behind. The result contains no
// remaining tags, so re-applying ForViewer to its own output is a no-op for
// any viewer.
func ForViewer(text string, viewer Viewer) string {
	if text == "" {
		return text
	}
	out := make([]byte, 0, len(text))
	i := 0
	for i < len(text) {
		kw := tagKeywordAt(text, i)
		if kw == "" {
			out = append(out, text[i])
			i++
			continue
		}
		sp, ok := parseTagSpan(text, i, kw)
		if !ok {
			// Unterminated or empty tag: keep the opening byte and
			// rescan from the next one.
			out = append(out, text[i])
			i++
			continue
		}
		if viewerListed(sp.idents, viewer) {
			out = append(out, PrivateMarker...)
			out = append(out, ForViewer(sp.content, viewer)...)
			i = sp.end
			continue
		}
		out, i = dropSpan(out, text, sp.end)
	}
	return string(out)
}

// StripHidden removes every hide[...] span from text. Secrets come back only
// when a turn result rewrites the stored content without the tag; no viewer
// argument can reveal them.
func StripHidden(text string) string {
	if text == "" {
		return text
	}
	out := make([]byte, 0, len(text))
	i := 0
	for i < len(text) {
		if !strings.HasPrefix(text[i:], "hide[") {
			out = append(out, text[i])
			i++
			continue
		}
		_, end, ok := balancedSpan(text, i+len("hide"))
		if !ok {
			out = append(out, text[i])
			i++
			continue
		}
		out, i = dropSpan(out, text, end)
	}
	return string(out)
}

func tagKeywordAt(text string, i int) string {
	if strings.HasPrefix(text[i:], "target(") {
		return "target"
	}
	if strings.HasPrefix(text[i:], "local(") {
		return "local"
	}
	return ""
}

func parseTagSpan(text string, i int, kw string) (span, bool) {
	j := i + len(kw) + 1
	rel := strings.IndexByte(text[j:], ')')
	if rel < 0 {
		return span{}, false
	}
	rawIdents := text[j : j+rel]
	if strings.TrimSpace(rawIdents) == "" {
		return span{}, false
	}
	k := j + rel + 1
	if k >= len(text) || text[k] != '[' {
		return span{}, false
	}
	content, end, ok := balancedSpan(text, k)
	if !ok {
		return span{}, false
	}
	return span{idents: splitIdents(rawIdents), content: content, end: end}, true
}

// balancedSpan expects text[open] == '[' and returns the span body and the
// index one past its matching close bracket.
func balancedSpan(text string, open int) (string, int, bool) {
	if open >= len(text) || text[open] != '[' {
		return "", 0, false
	}
	depth := 0
	for p := open; p < len(text); p++ {
		switch text[p] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[open+1 : p], p + 1, true
			}
		}
	}
	return "", 0, false
}

func splitIdents(raw string) []string {
	parts := strings.Split(raw, ",")
	idents := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			idents = append(idents, p)
		}
	}
	return idents
}

func viewerListed(idents []string, viewer Viewer) bool {
	for _, id := range idents {
		if viewer.matches(id) {
			return true
		}
	}
	return false
}

// dropSpan advances past a removed span. When the span occupied a line of
// its own, the now-empty line is dropped too; surrounding text is never
// touched, which keeps removal idempotent.
func dropSpan(out []byte, text string, end int) ([]byte, int) {
	lineStart := len(out)
	for lineStart > 0 && out[lineStart-1] != '\n' {
		lineStart--
	}
	for _, b := range out[lineStart:] {
		if b != ' ' && b != '\t' {
			return out, end
		}
	}
	j := end
	for j < len(text) && (text[j] == ' ' || text[j] == '\t') {
		j++
	}
	switch {
	case j < len(text) && text[j] == '\n':
		return out[:lineStart], j + 1
	case j+1 < len(text) && text[j] == '\r' && text[j+1] == '\n':
		return out[:lineStart], j + 2
	}
	return out, end
}
