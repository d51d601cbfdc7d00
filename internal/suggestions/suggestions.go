// Package suggestions attaches a safe-alternative string to destructive
// matches, keyed by the pattern's suggestion_kind (not its rule_id, so the
// same alternative can be shared across packs — e.g. every git push
// --force variant across tiers points at the same --force-with-lease tip).
package suggestions

// Table maps a suggestion_kind to the human-readable alternative shown in
// the hook's remediation.safeAlternative field and in boxed denial output.
var Table = map[string]string{
	"push-force-with-lease": "git push --force-with-lease (fails if the remote has commits you haven't seen)",
	"reset-soft":             "git reset --soft (keeps your changes staged instead of discarding them)",
	"stash-before-clean":     "git stash (save your changes before running a cleanup command)",
	"snapshot-before-drop":   "take a snapshot or backup before dropping this resource",
	"dry-run-first":          "re-run with --dry-run (or --check/plan) first to preview the effect",
}

// For looks up the safe alternative for a suggestion kind. The empty
// string, not an error, signals "no suggestion on file" — most patterns
// have none, and that's the common case, not a failure.
func For(suggestionKind string) string {
	return Table[suggestionKind]
}
