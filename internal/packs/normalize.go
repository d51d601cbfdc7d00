package packs

import (
	"regexp"
	"strings"
)

// pathPrefixRE collapses an absolute path to git or rm down to the bare
// command name before regex matching. Only git and rm are special-cased,
// matching the source's scope (see the Open Question this leaves for
// kubectl/docker, recorded in DESIGN.md).
var pathPrefixRE = regexp.MustCompile(`^(?:/[^\s/]+)+/(?:s?bin)/(git|rm)(\s|$)`)

// Normalize collapses an absolute-path command prefix (e.g. "/usr/bin/git")
// to its bare name ("git") so pack regexes, which are authored against the
// bare command name, still fire. It returns the normalized string and the
// byte delta to add to any match offset found in it to recover the offset
// in the original string. Idempotent: Normalize(Normalize(cmd)) == Normalize(cmd).
func Normalize(cmd string) (normalized string, delta int) {
	loc := pathPrefixRE.FindStringSubmatchIndex(cmd)
	if loc == nil {
		return cmd, 0
	}
	// loc[2]:loc[3] is the captured bare command name (git|rm).
	nameStart, nameEnd := loc[2], loc[3]
	prefixLen := nameStart
	normalized = cmd[nameStart:nameEnd] + cmd[nameEnd:]
	return normalized, prefixLen
}

// byteSpanOf finds the byte range of needle within haystack, starting the
// search no earlier than a rune-index hint (best effort — some regex
// engines report match offsets in units other than bytes, so the hint is
// only used to disambiguate repeated occurrences, never trusted outright).
func byteSpanOf(haystack, needle string, hint int) (start, end int) {
	if needle == "" {
		return 0, 0
	}
	// Try the byte offset implied by the hint first; many matches are
	// ASCII, so rune index and byte index coincide.
	if hint >= 0 && hint <= len(haystack) {
		if idx := strings.Index(haystack[hint:], needle); idx >= 0 {
			s := hint + idx
			return s, s + len(needle)
		}
	}
	idx := strings.Index(haystack, needle)
	if idx < 0 {
		return 0, 0
	}
	return idx, idx + len(needle)
}

// MapSpan adjusts a span computed against a normalized command back to the
// original command's byte offsets using the delta Normalize returned.
func MapSpan(span MatchSpan, delta int) MatchSpan {
	return MatchSpan{Start: span.Start + delta, End: span.End + delta}
}
