package model

// ContextHints carries pre-resolved external signals for a transaction:
// calendar keywords and contact names that overlapped the transaction date.
// The engine consumes these as-is; retrieval is the caller's problem.
type ContextHints struct {
	CalendarKeywords []string
	ContactNames     []string
}

// Empty reports whether there are no hints at all.
func (h ContextHints) Empty() bool {
	return len(h.CalendarKeywords) == 0 && len(h.ContactNames) == 0
}
