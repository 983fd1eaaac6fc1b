// Package learning persists human feedback on proposed matches and serves
// it back to the matchers. Reads during scoring go through an immutable
// Snapshot; writes are serialized and swap in a fresh snapshot
// copy-on-write, so scoring workers never race a feedback writer.
package learning

import (
	"sort"
	"strings"

	"ledgermatch/internal/model"
	"ledgermatch/internal/normalize"
)

// Snapshot is an immutable view of the alias table and negative examples.
// It implements normalize.AliasResolver and the merchant matcher's
// negative-pair check. A nil *Snapshot behaves as an empty table.
type Snapshot struct {
	exact     map[string]string
	ordered   []model.AliasEntry
	negatives map[string]struct{}
}

// NewSnapshot builds a snapshot from alias entries and negative examples.
// Patterns and canonicals are normalized to cleaned form, chained
// canonicals collapse to their final name, and every canonical gains an
// exact self-mapping so canonicalization stays idempotent. Later entries
// win on duplicate patterns.
func NewSnapshot(aliases []model.AliasEntry, negatives []model.NegativeExample) *Snapshot {
	s := &Snapshot{
		exact:     make(map[string]string, len(aliases)*2),
		negatives: make(map[string]struct{}, len(negatives)),
	}

	for _, a := range aliases {
		pattern := normalize.Clean(a.Pattern)
		canonical := normalize.Clean(a.Canonical)
		if pattern == "" || canonical == "" {
			continue
		}

		s.exact[pattern] = canonical
		entry := a
		entry.Pattern = pattern
		entry.Canonical = canonical
		s.ordered = append(s.ordered, entry)
	}

	// Feedback can chain entries (a maps to b while b maps to c), which
	// would make canonicalization non-idempotent. Collapse every canonical
	// to its fixpoint through the table before self-mapping.
	for i := range s.ordered {
		resolved := resolveChain(s.exact, s.ordered[i].Canonical)
		s.ordered[i].Canonical = resolved
		s.exact[s.ordered[i].Pattern] = resolved
	}

	// Self-mappings guarantee Canonicalize(canonical) == canonical.
	for _, a := range s.ordered {
		if _, ok := s.exact[a.Canonical]; !ok {
			s.exact[a.Canonical] = a.Canonical
		}
	}

	// Longest pattern first so the most specific prefix/substring wins;
	// lexical order breaks length ties deterministically.
	sort.SliceStable(s.ordered, func(i, j int) bool {
		if len(s.ordered[i].Pattern) != len(s.ordered[j].Pattern) {
			return len(s.ordered[i].Pattern) > len(s.ordered[j].Pattern)
		}
		return s.ordered[i].Pattern < s.ordered[j].Pattern
	})

	for _, n := range negatives {
		s.negatives[pairKey(normalize.Clean(n.RawMerchant), normalize.Clean(n.Canonical))] = struct{}{}
	}

	return s
}

// Empty reports whether the snapshot holds no alias entries.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.exact) == 0
}

// AliasCount returns the number of alias entries.
func (s *Snapshot) AliasCount() int {
	if s == nil {
		return 0
	}
	return len(s.ordered)
}

// LookupExact resolves a cleaned merchant string by exact pattern match.
func (s *Snapshot) LookupExact(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	canonical, ok := s.exact[name]
	return canonical, ok
}

// LookupPrefix resolves a cleaned merchant string whose leading characters
// match an alias pattern. The longest matching pattern wins.
func (s *Snapshot) LookupPrefix(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, a := range s.ordered {
		if strings.HasPrefix(name, a.Pattern) {
			return a.Canonical, true
		}
	}
	return "", false
}

// LookupSubstring resolves a cleaned merchant string containing an alias
// pattern anywhere. The longest matching pattern wins.
func (s *Snapshot) LookupSubstring(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, a := range s.ordered {
		if strings.Contains(name, a.Pattern) {
			return a.Canonical, true
		}
	}
	return "", false
}

// IsNegative reports whether this merchant pair was rejected by a human.
// The pair is unordered.
func (s *Snapshot) IsNegative(a, b string) bool {
	if s == nil {
		return false
	}
	_, ok := s.negatives[pairKey(normalize.Clean(a), normalize.Clean(b))]
	return ok
}

// resolveChain follows a canonical through the exact table until it stops
// changing. A cycle (a maps to b, b maps to a) breaks at the entry that
// would revisit a name already seen.
func resolveChain(exact map[string]string, canonical string) string {
	seen := map[string]struct{}{canonical: {}}
	for {
		next, ok := exact[canonical]
		if !ok || next == canonical {
			return canonical
		}
		if _, visited := seen[next]; visited {
			return canonical
		}
		seen[next] = struct{}{}
		canonical = next
	}
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "\x1f" + b
}
