package normalize

import "regexp"

// cleanupRule rewrites one class of payment-processor noise. Rules run in
// order; each must be idempotent on its own output so the whole pipeline
// stays idempotent.
type cleanupRule struct {
	pattern *regexp.Regexp
	replace string
}

// cleanupRules strip the prefixes, store numbers, terminal codes and
// trailing reference ids that card processors bolt onto merchant names.
// Input is already lowercased and space-collapsed when these run.
var cleanupRules = []cleanupRule{
	// Processor prefixes: "sq *", "tst* ", "py *", "paypal *", "pp*", etc.
	// Repeated prefixes are consumed in one pass to keep the rule idempotent.
	{regexp.MustCompile(`^(?:(?:sq|tst|py|pp|paypal|gpay|apl|intuit)\s*\*\s*)+`), ""},
	// Card-network boilerplate prefixes.
	{regexp.MustCompile(`^(?:(?:pos|debit card purchase|checkcard|crd|ach) )+`), ""},
	// "purchase authorized on 03/01" style prefixes.
	{regexp.MustCompile(`^purchase authorized on \d{2}/\d{2} `), ""},
	// Store numbers: "#4521", "# 0042".
	{regexp.MustCompile(`#\s*\d+`), " "},
	// Masked terminal codes: "xxx123", "xxxx4521".
	{regexp.MustCompile(`\bx{2,}\d+\b`), " "},
	// Trailing transaction references: long digit runs at the end.
	{regexp.MustCompile(`\b\d{4,}$`), " "},
	// Apostrophes vanish ("mario's" -> "marios"); other punctuation
	// becomes a separator.
	{regexp.MustCompile(`['` + "’" + `]`), ""},
	{regexp.MustCompile(`[^a-z0-9\s]`), " "},
}

var whitespaceRe = regexp.MustCompile(`\s+`)
