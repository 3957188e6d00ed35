package rcv

import "github.com/shopspring/decimal"

// Decimal is the exact, fixed-scale rational used everywhere on the vote
// path (spec §3, §4.1). It is a thin alias over shopspring/decimal, the
// exact-arithmetic library the teacher service already uses for vote
// tallies (vote/stv_scottish.go). No binary floating point ever appears
// here.
type Decimal = decimal.Decimal

// DecimalArith performs vote-path arithmetic at a fixed configured scale,
// truncating toward zero on every multiplication and division the way
// spec §4.1 requires. Truncation, not rounding, is the rule: any drift is
// captured by the caller as residual surplus rather than silently
// discarded.
type DecimalArith struct {
	scale int32
}

// NewDecimalArith returns a DecimalArith at the given scale. scale must be
// in [1, 20]; Config.Validate enforces that before this is ever called.
func NewDecimalArith(scale int) DecimalArith {
	return DecimalArith{scale: int32(scale)}
}

// Scale returns the configured number of decimal places.
func (d DecimalArith) Scale() int {
	return int(d.scale)
}

// Add returns a + b, exact.
func (d DecimalArith) Add(a, b Decimal) Decimal {
	return a.Add(b)
}

// Sub returns a - b, exact.
func (d DecimalArith) Sub(a, b Decimal) Decimal {
	return a.Sub(b)
}

// Mul returns a * b truncated toward zero to the configured scale.
func (d DecimalArith) Mul(a, b Decimal) Decimal {
	return a.Mul(b).Truncate(d.scale)
}

// divGuardDigits is how many extra digits past the configured scale the
// intermediate quotient is computed at before truncation. It only has to
// be large enough that the rounding DivRound performs at that depth can
// never flip the digit at the truncation point; ten is comfortably more
// than any scale in [1, 20] needs.
const divGuardDigits = 10

// Div returns a / b truncated toward zero to the configured scale. Div
// panics if b is zero, matching shopspring/decimal's own behavior; callers
// on the vote path never divide by a tally that could be zero without
// checking IsZero first.
func (d DecimalArith) Div(a, b Decimal) Decimal {
	return a.DivRound(b, d.scale+divGuardDigits).Truncate(d.scale)
}

// SmallestUnit returns 10^-scale, the smallest representable increment —
// used by the non-integer threshold formula (spec §4.3.3).
func (d DecimalArith) SmallestUnit() Decimal {
	return decimal.New(1, -d.scale)
}

// Cmp, IsPositive and IsZero are exact and need no scale; they are exposed
// here only so callers on the vote path don't have to import
// shopspring/decimal directly.
func Cmp(a, b Decimal) int   { return a.Cmp(b) }
func IsPositive(a Decimal) bool { return a.IsPositive() }
func IsZero(a Decimal) bool  { return a.IsZero() }

// One is the constant fractional value a fresh ballot starts with.
func One() Decimal { return decimal.NewFromInt(1) }

// Zero is the additive identity, spelled out for readability at call sites.
func Zero() Decimal { return decimal.Zero }
