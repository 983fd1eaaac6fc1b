package model

import "time"

// AliasSource indicates how an alias mapping was created.
type AliasSource string

const (
	// AliasSourceAuto indicates the alias was learned from accepted feedback.
	AliasSourceAuto AliasSource = "AUTO"
	// AliasSourceManual indicates the alias was added via CLI command.
	AliasSourceManual AliasSource = "MANUAL"
	// AliasSourceAutoConfirmed indicates a learned alias the user has edited.
	AliasSourceAutoConfirmed AliasSource = "AUTO_CONFIRMED"
)

// AliasEntry maps a merchant pattern to a canonical merchant name. Patterns
// are matched case-insensitively with exact, prefix, then substring
// semantics. The table is last-writer-wins per pattern key.
type AliasEntry struct {
	LastUpdated time.Time
	Pattern     string
	Canonical   string
	Source      AliasSource
	UseCount    int
}
