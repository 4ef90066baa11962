// Package fixed implements deterministic fixed-point arithmetic for
// layout coordinates. Floating-point math is avoided in the layout
// engine because rounding differences across platforms would
// invalidate the constraint solution cache (see internal/layout).
package fixed

import "math"

// Q16 is a signed Q16.16 fixed-point number: 16 integer bits, 16
// fractional bits, packed into an int32.
type Q16 int32

// Q24 is a signed Q24.8 fixed-point number: 24 integer bits, 8
// fractional bits, packed into an int32. Used where a wider integer
// range is needed at the cost of fractional precision.
type Q24 int32

const (
	q16FracBits = 16
	q16One      = 1 << q16FracBits

	q24FracBits = 8
	q24One      = 1 << q24FracBits
)

// FromInt converts an integer to Q16.
func FromInt(v int) Q16 {
	return Q16(int64(v) << q16FracBits)
}

// FromFloat converts a float64 to Q16, rounding toward zero.
// Non-finite inputs convert to zero.
func FromFloat(v float64) Q16 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return Q16(v * q16One)
}

// ToFloat converts a Q16 back to float64.
func (a Q16) ToFloat() float64 {
	return float64(a) / q16One
}

// Floor returns the integer part, rounding toward negative infinity.
func (a Q16) Floor() int {
	return int(a >> q16FracBits)
}

// Ceil returns the integer part, rounding toward positive infinity.
func (a Q16) Ceil() int {
	if a&(q16One-1) == 0 {
		return int(a >> q16FracBits)
	}
	return int(a>>q16FracBits) + 1
}

// Round returns the integer part, rounding half up.
func (a Q16) Round() int {
	return int((a + q16One/2) >> q16FracBits)
}

// Add returns a+b, saturating at int32 bounds on overflow.
func (a Q16) Add(b Q16) Q16 {
	sum := int64(a) + int64(b)
	return Q16(saturate32(sum))
}

// Sub returns a-b, saturating at int32 bounds on overflow.
func (a Q16) Sub(b Q16) Q16 {
	diff := int64(a) - int64(b)
	return Q16(saturate32(diff))
}

// Mul returns a*b. The product is computed in 64 bits before shifting
// back down to avoid intermediate overflow.
func (a Q16) Mul(b Q16) Q16 {
	wide := int64(a) * int64(b)
	return Q16(saturate32(wide >> q16FracBits))
}

// Div returns a/b. Returns 0 if b is zero.
func (a Q16) Div(b Q16) Q16 {
	if b == 0 {
		return 0
	}
	wide := (int64(a) << q16FracBits) / int64(b)
	return Q16(saturate32(wide))
}

// Abs returns the absolute value, saturating at int32 bounds.
func (a Q16) Abs() Q16 {
	if a < 0 {
		return a.Sub(a).Sub(a) // 0 - a, saturating
	}
	return a
}

// Bits returns the raw int32 bit pattern, used as a cache-key
// component so constraint keys are associative under equality (see
// spec §9: "Floats in cache keys").
func (a Q16) Bits() int32 { return int32(a) }

// Lerp linearly interpolates between a and b by t (also Q16).
// lerp(a, b, t) = a + (b-a)*t
func Lerp(a, b, t Q16) Q16 {
	return a.Add(b.Sub(a).Mul(t))
}

func saturate32(v int64) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

// FromInt24 converts an integer to Q24.
func FromInt24(v int) Q24 {
	return Q24(int64(v) << q24FracBits)
}

// FromFloat24 converts a float64 to Q24, rounding toward zero.
func FromFloat24(v float64) Q24 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return Q24(v * q24One)
}

// ToFloat converts a Q24 back to float64.
func (a Q24) ToFloat() float64 {
	return float64(a) / q24One
}

// Add returns a+b, saturating at int32 bounds on overflow.
func (a Q24) Add(b Q24) Q24 {
	sum := int64(a) + int64(b)
	return Q24(saturate32(sum))
}

// Sub returns a-b, saturating at int32 bounds on overflow.
func (a Q24) Sub(b Q24) Q24 {
	diff := int64(a) - int64(b)
	return Q24(saturate32(diff))
}

// Mul returns a*b, widening to 64 bits before shifting back down.
func (a Q24) Mul(b Q24) Q24 {
	wide := int64(a) * int64(b)
	return Q24(saturate32(wide >> q24FracBits))
}

// Div returns a/b. Returns 0 if b is zero.
func (a Q24) Div(b Q24) Q24 {
	if b == 0 {
		return 0
	}
	wide := (int64(a) << q24FracBits) / int64(b)
	return Q24(saturate32(wide))
}
