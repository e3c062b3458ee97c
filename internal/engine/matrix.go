package engine

import "math"

// Matrix2D is an affine transform in canvas setTransform order
// [a, b, c, d, e, f]:
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
//
// Viewport transforms only scale and translate; b and c stay zero.
type Matrix2D [6]float64

// Identity returns the transform that leaves points unchanged.
func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

// Translate returns a transform that shifts points by (tx, ty).
func Translate(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, tx, ty}
}

// Scale returns a transform that scales about the origin.
func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, sy, 0, 0}
}

// Multiply composes m after n: the result applies n first.
func (m Matrix2D) Multiply(n Matrix2D) Matrix2D {
	a, b, c, d, e, f := m[0], m[1], m[2], m[3], m[4], m[5]
	return Matrix2D{
		a*n[0] + c*n[1],
		b*n[0] + d*n[1],
		a*n[2] + c*n[3],
		b*n[2] + d*n[3],
		a*n[4] + c*n[5] + e,
		b*n[4] + d*n[5] + f,
	}
}

// TransformPoint applies m to (x, y).
func (m Matrix2D) TransformPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// TransformRect maps r and returns the axis-aligned box around the result.
func (m Matrix2D) TransformRect(r Rect) Rect {
	xs := [4]float64{}
	ys := [4]float64{}
	xs[0], ys[0] = m.TransformPoint(r.X, r.Y)
	xs[1], ys[1] = m.TransformPoint(r.X+r.Width, r.Y)
	xs[2], ys[2] = m.TransformPoint(r.X, r.Y+r.Height)
	xs[3], ys[3] = m.TransformPoint(r.X+r.Width, r.Y+r.Height)

	x0, y0 := min(xs[0], xs[1], xs[2], xs[3]), min(ys[0], ys[1], ys[2], ys[3])
	x1, y1 := max(xs[0], xs[1], xs[2], xs[3]), max(ys[0], ys[1], ys[2], ys[3])
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Determinant returns the determinant of the linear part.
func (m Matrix2D) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Invert returns the inverse transform. A singular matrix, which a
// clamped viewport never produces, inverts to the identity.
func (m Matrix2D) Invert() Matrix2D {
	det := m.Determinant()
	if det == 0 {
		return Identity()
	}
	a, b, c, d, e, f := m[0]/det, m[1]/det, m[2]/det, m[3]/det, m[4], m[5]
	return Matrix2D{
		d, -b,
		-c, a,
		c*f - d*e,
		b*e - a*f,
	}
}

// ToSlice is the JSON form handed to the renderer.
func (m Matrix2D) ToSlice() []float64 {
	return m[:]
}

// IsIdentity reports whether m is the identity within 1e-10.
func (m Matrix2D) IsIdentity() bool {
	const eps = 1e-10
	id := Identity()
	for i := range m {
		if math.Abs(m[i]-id[i]) >= eps {
			return false
		}
	}
	return true
}
