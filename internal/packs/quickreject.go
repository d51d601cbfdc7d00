package packs

import "strings"

// QuickReject reports whether none of the given keywords appears as a
// substring of cmd. When it returns true, the caller can return Allow
// without touching any regex — the single most important performance
// decision in the engine, since the typical allow-path cost becomes one
// linear scan over a few dozen bytes. Go's strings.Contains already lowers
// to an assembly-optimized substring search (Rabin-Karp with a SIMD-backed
// byte scan on amd64/arm64 in the standard library), so no third-party
// SIMD library is pulled in here — see DESIGN.md for why introducing one
// would contradict the teacher's pure-Go dependency stack.
func QuickReject(cmd string, keywords []string) bool {
	lower := strings.ToLower(cmd)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}
