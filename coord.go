package osmdigest

import (
	"github.com/shopspring/decimal"
)

// CoordScale is the fixed-point scale applied to decimal-degree
// coordinates before they are persisted: microdegrees times ten, per
// spec §4.3/§9.
const CoordScale = 1e7

var scale = decimal.NewFromInt(CoordScale)
var half = decimal.NewFromFloat(0.5)

// EncodeCoord maps a decimal-degree float to the signed 32-bit fixed-point
// integer used on disk. Rounding is asymmetric around zero:
// floor(f*1e7 + 0.5) for f >= 0, ceil(f*1e7 - 0.5) for f < 0. The
// computation is carried out in exact decimal arithmetic so the rounding
// boundary is not perturbed by binary float representation error.
func EncodeCoord(f float64) int32 {
	d := decimal.NewFromFloat(f)
	scaled := d.Mul(scale)
	if scaled.Sign() >= 0 {
		return int32(scaled.Add(half).Floor().IntPart())
	}
	return int32(scaled.Sub(half).Ceil().IntPart())
}

// DecodeCoord maps a persisted fixed-point integer back to decimal
// degrees: i / 1e7.
func DecodeCoord(i int32) float64 {
	f, _ := decimal.NewFromInt(int64(i)).Div(scale).Float64()
	return f
}
