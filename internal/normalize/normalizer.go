// Package normalize canonicalizes raw merchant strings into comparable
// identities. Cleaning is an explicit, ordered rule list; alias resolution
// runs against an immutable snapshot supplied at construction.
package normalize

import "strings"

// Method records which stage of canonicalization produced the result, for
// explainability in match reasoning.
type Method string

// Canonicalization methods.
const (
	MethodAliasExact     Method = "alias_exact"
	MethodAliasPrefix    Method = "alias_prefix"
	MethodAliasSubstring Method = "alias_substring"
	MethodCleaned        Method = "cleaned"
)

// AliasResolver looks up canonical names for cleaned merchant strings.
// Implemented by the learning snapshot; nil means no alias table is
// available and every run is degraded to rule cleaning only.
type AliasResolver interface {
	LookupExact(name string) (string, bool)
	LookupPrefix(name string) (string, bool)
	LookupSubstring(name string) (string, bool)
	Empty() bool
}

// Normalizer canonicalizes raw merchant strings. It is safe for concurrent
// use: the rule list is immutable and the alias resolver is a snapshot.
type Normalizer struct {
	aliases AliasResolver
}

// New creates a normalizer bound to an alias snapshot. A nil resolver is
// valid and disables alias resolution.
func New(aliases AliasResolver) *Normalizer {
	return &Normalizer{aliases: aliases}
}

// HasAliasTable reports whether alias resolution is available.
func (n *Normalizer) HasAliasTable() bool {
	return n.aliases != nil && !n.aliases.Empty()
}

// Clean applies the ordered cleanup rules to a raw merchant string:
// case-folding, whitespace collapsing, and processor-noise stripping.
// Clean is deterministic and idempotent.
func Clean(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = whitespaceRe.ReplaceAllString(s, " ")

	for _, rule := range cleanupRules {
		s = rule.pattern.ReplaceAllString(s, rule.replace)
	}

	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Canonicalize resolves a raw merchant string to its canonical identity.
// Stages, in order: rule cleaning, alias lookup by exact then prefix then
// substring match, and finally the cleaned string itself. The returned
// method names the stage that produced the result.
//
// Canonicalize(Canonicalize(x)) == Canonicalize(x) holds for all inputs:
// the snapshot stores canonical names in cleaned form and carries an exact
// self-mapping for every canonical, so re-canonicalizing a canonical name
// resolves to itself.
func (n *Normalizer) Canonicalize(raw string) (string, Method) {
	cleaned := Clean(raw)

	if n.HasAliasTable() {
		if canonical, ok := n.aliases.LookupExact(cleaned); ok {
			return canonical, MethodAliasExact
		}
		if canonical, ok := n.aliases.LookupPrefix(cleaned); ok {
			return canonical, MethodAliasPrefix
		}
		if canonical, ok := n.aliases.LookupSubstring(cleaned); ok {
			return canonical, MethodAliasSubstring
		}
	}

	return cleaned, MethodCleaned
}
