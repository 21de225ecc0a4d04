package core

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// stakePattern allows digits with at most one decimal point and at most
// two fractional digits. Anything else is rejected without mutating state.
var stakePattern = regexp.MustCompile(`^(\d+)?\.?(\d{0,2})?$`)

// defaultStake is seeded the first time a usable balance ceiling arrives.
var defaultStake = decimal.RequireFromString("10.00")

// StakeAmount keeps a user-editable stake and its display string mutually
// consistent while clamping to balance-derived bounds. The minimum stake
// floor is applied only at submission time through ValidAmount, so the
// user may transiently see smaller values while editing.
type StakeAmount struct {
	min     decimal.Decimal
	max     decimal.Decimal
	amount  decimal.Decimal
	display string
	seeded  bool
}

// NewStakeAmount creates a controller with the given bounds. min is the
// editing lower bound (usually zero), not the submission floor.
func NewStakeAmount(min, max decimal.Decimal) *StakeAmount {
	s := &StakeAmount{min: min, max: max}
	s.amount = s.clamp(decimal.Zero)
	s.display = "0.00"
	return s
}

// SetInput applies a typed value. Invalid keystrokes are rejected and the
// previous state is kept; the return value reports whether the input was
// accepted.
func (s *StakeAmount) SetInput(value string) bool {
	if !stakePattern.MatchString(value) {
		return false
	}

	// Empty or a lone dot is allowed while typing and reads as zero.
	if value == "" || value == "." {
		s.display = value
		s.amount = s.clamp(decimal.Zero)
		return true
	}

	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return false
	}

	clamped := s.clamp(parsed)
	s.amount = clamped
	if clamped.Equal(parsed) {
		s.display = value
	} else {
		s.display = clamped.StringFixed(2)
	}

	return true
}

// SetSlider applies a slider or stepper value directly.
func (s *StakeAmount) SetSlider(value decimal.Decimal) {
	s.amount = s.clamp(value)
	s.display = s.amount.StringFixed(2)
}

// Increment raises the stake by one unit, clamped to the ceiling.
func (s *StakeAmount) Increment() {
	s.SetSlider(s.amount.Add(decimal.New(1, 0)))
}

// Decrement lowers the stake by one unit. It never goes below the
// submission floor.
func (s *StakeAmount) Decrement() {
	if s.amount.GreaterThan(MinStake) {
		s.SetSlider(s.amount.Sub(decimal.New(1, 0)))
	}
}

// Blur canonicalizes the display when editing ends. Empty or zero-parsing
// input snaps to "0.00".
func (s *StakeAmount) Blur() {
	if s.amount.IsZero() {
		s.display = "0.00"
		return
	}
	s.display = s.amount.StringFixed(2)
}

// SetCeiling updates the balance-derived upper bound and re-clamps the
// current stake. The first usable ceiling also seeds a default stake.
func (s *StakeAmount) SetCeiling(max decimal.Decimal) {
	if max.IsNegative() {
		max = decimal.Zero
	}
	s.max = max

	if !s.seeded && max.IsPositive() && s.amount.IsZero() {
		s.seeded = true
		s.SetSlider(decimal.Min(defaultStake, max))
		return
	}

	clamped := s.clamp(s.amount)
	if !clamped.Equal(s.amount) {
		s.amount = clamped
		s.display = clamped.StringFixed(2)
	}
}

// Amount returns the current numeric stake.
func (s *StakeAmount) Amount() decimal.Decimal {
	return s.amount
}

// Display returns the current display string.
func (s *StakeAmount) Display() string {
	return s.display
}

// ValidAmount returns the stake with the submission-time floor applied.
func (s *StakeAmount) ValidAmount() decimal.Decimal {
	return decimal.Max(MinStake, s.amount)
}

func (s *StakeAmount) clamp(v decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(s.min, v), s.max)
}
