package match

import (
	"math"
	"time"

	"ledgermatch/internal/model"
)

// DateConfig tunes temporal proximity scoring.
type DateConfig struct {
	// CategoryWindows widens the decay window for merchant categories
	// known to email receipts late, keyed by category name.
	CategoryWindows map[string]int
	// MerchantCategories maps canonical merchant names to a category for
	// window selection. Optional.
	MerchantCategories map[string]string
	// WindowDays is the default width of the linear decay window.
	WindowDays int
	// MissingDateScore is the neutral score for receipts without a date.
	MissingDateScore float64
}

// DefaultDateConfig returns the standard date tolerance settings.
func DefaultDateConfig() DateConfig {
	return DateConfig{
		WindowDays: 7,
		CategoryWindows: map[string]int{
			"travel":  14,
			"lodging": 14,
		},
		MissingDateScore: 0.5,
	}
}

// DateScore is the result of one date comparison.
type DateScore struct {
	Score     float64
	DaysApart int
	Missing   bool
}

// DateMatcher compares transaction and receipt dates with linear decay
// across a per-category window.
type DateMatcher struct {
	config DateConfig
}

// NewDateMatcher creates a date matcher.
func NewDateMatcher(config DateConfig) *DateMatcher {
	return &DateMatcher{config: config}
}

// Compare scores temporal proximity. A missing receipt date yields the
// neutral score, never zero: absent OCR data must not sink an otherwise
// strong match. merchant selects a category window when configured.
func (m *DateMatcher) Compare(txDate time.Time, receipt *model.Receipt, merchant string) DateScore {
	if !receipt.HasDate() {
		return DateScore{Score: m.config.MissingDateScore, Missing: true}
	}

	txDay := truncateToDay(txDate)
	rcDay := truncateToDay(receipt.Date)

	days := int(math.Abs(txDay.Sub(rcDay).Hours() / 24))
	if days == 0 {
		return DateScore{Score: 1.0}
	}

	window := m.windowFor(merchant)
	score := 1.0 - float64(days)/float64(window)
	if score < 0 {
		score = 0
	}

	return DateScore{Score: score, DaysApart: days}
}

func (m *DateMatcher) windowFor(merchant string) int {
	window := m.config.WindowDays
	if window <= 0 {
		window = 7
	}

	if category, ok := m.config.MerchantCategories[merchant]; ok {
		if wider, ok := m.config.CategoryWindows[category]; ok && wider > window {
			window = wider
		}
	}

	return window
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
