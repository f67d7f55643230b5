package math

import "math"

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// axis should be normalized, angle is in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	halfAngle := angle / 2
	s := float32(math.Sin(float64(halfAngle)))
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: float32(math.Cos(float64(halfAngle))),
	}
}

// QuatFromUnitVectors returns the shortest rotation taking unit vector from onto unit vector to.
func QuatFromUnitVectors(from, to Vec3) Quat {
	r := from.Dot(to) + 1
	if r < 1e-6 {
		// Opposite vectors: rotate 180 degrees around any orthogonal axis.
		if abs32(from.X) > abs32(from.Z) {
			return Quat{X: -from.Y, Y: from.X, Z: 0, W: 0}.Normalize()
		}
		return Quat{X: 0, Y: -from.Z, Z: from.Y, W: 0}.Normalize()
	}
	c := from.Cross(to)
	return Quat{X: c.X, Y: c.Y, Z: c.Z, W: r}.Normalize()
}

// QuatFromEulerYXZ builds a rotation from intrinsic Y (yaw), X (pitch), Z (roll) angles in radians.
func QuatFromEulerYXZ(pitch, yaw, roll float32) Quat {
	c1 := float32(math.Cos(float64(pitch / 2)))
	c2 := float32(math.Cos(float64(yaw / 2)))
	c3 := float32(math.Cos(float64(roll / 2)))
	s1 := float32(math.Sin(float64(pitch / 2)))
	s2 := float32(math.Sin(float64(yaw / 2)))
	s3 := float32(math.Sin(float64(roll / 2)))

	return Quat{
		X: s1*c2*c3 + c1*s2*s3,
		Y: c1*s2*c3 - s1*c2*s3,
		Z: c1*c2*s3 - s1*s2*c3,
		W: c1*c2*c3 + s1*s2*s3,
	}
}

// EulerYXZ decomposes the rotation into pitch (X), yaw (Y) and roll (Z) for YXZ order.
func (q Quat) EulerYXZ() (pitch, yaw, roll float32) {
	m := q.ToMat4()
	// Column-major: m[col*4+row]
	m11, m13 := m[0], m[8]
	m21, m22, m23 := m[1], m[5], m[9]
	m31, m33 := m[2], m[10]

	pitch = float32(math.Asin(float64(-clamp32(m23, -1, 1))))
	if abs32(m23) < 0.9999999 {
		yaw = float32(math.Atan2(float64(m13), float64(m33)))
		roll = float32(math.Atan2(float64(m21), float64(m22)))
	} else {
		yaw = float32(math.Atan2(float64(-m31), float64(m11)))
		roll = 0
	}
	return pitch, yaw, roll
}

// QuatFromRotationMatrix extracts the rotation from the upper 3x3 of a pure rotation matrix.
func QuatFromRotationMatrix(m Mat4) Quat {
	m11, m12, m13 := m[0], m[4], m[8]
	m21, m22, m23 := m[1], m[5], m[9]
	m31, m32, m33 := m[2], m[6], m[10]

	trace := m11 + m22 + m33
	switch {
	case trace > 0:
		s := 0.5 / float32(math.Sqrt(float64(trace+1)))
		return Quat{
			W: 0.25 / s,
			X: (m32 - m23) * s,
			Y: (m13 - m31) * s,
			Z: (m21 - m12) * s,
		}
	case m11 > m22 && m11 > m33:
		s := 2 * float32(math.Sqrt(float64(1+m11-m22-m33)))
		return Quat{
			W: (m32 - m23) / s,
			X: 0.25 * s,
			Y: (m12 + m21) / s,
			Z: (m13 + m31) / s,
		}
	case m22 > m33:
		s := 2 * float32(math.Sqrt(float64(1+m22-m11-m33)))
		return Quat{
			W: (m13 - m31) / s,
			X: (m12 + m21) / s,
			Y: 0.25 * s,
			Z: (m23 + m32) / s,
		}
	default:
		s := 2 * float32(math.Sqrt(float64(1+m33-m11-m22)))
		return Quat{
			W: (m21 - m12) / s,
			X: (m13 + m31) / s,
			Y: (m23 + m32) / s,
			Z: 0.25 * s,
		}
	}
}

// QuatLookAt returns the orientation of an object at eye looking at target,
// using the -Z forward / +Y up camera convention.
func QuatLookAt(eye, target, up Vec3) Quat {
	back := eye.Sub(target).Normalize()
	if back == (Vec3{}) {
		back = UnitZ
	}
	right := up.Cross(back)
	if right.Length() < 1e-6 {
		// Looking straight along up: pick another reference.
		right = UnitZ.Cross(back)
		if right.Length() < 1e-6 {
			right = UnitX
		}
	}
	right = right.Normalize()
	trueUp := back.Cross(right)

	return QuatFromRotationMatrix(Mat4{
		right.X, right.Y, right.Z, 0,
		trueUp.X, trueUp.Y, trueUp.Z, 0,
		back.X, back.Y, back.Z, 0,
		0, 0, 0, 1,
	}).Normalize()
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := float32(math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)))
	if length < 0.0001 {
		return QuatIdentity()
	}
	invLen := 1.0 / length
	return Quat{
		X: q.X * invLen,
		Y: q.Y * invLen,
		Z: q.Z * invLen,
		W: q.W * invLen,
	}
}

// Conjugate returns the inverse rotation of a unit quaternion.
func (q Quat) Conjugate() Quat {
	return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Rotate applies the rotation to a vector.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// Slerp performs spherical linear interpolation between two quaternions.
// t should be in range [0, 1].
func (q Quat) Slerp(other Quat, t float32) Quat {
	// Compute cos of angle between quaternions
	dot := q.Dot(other)

	// If dot is negative, negate one quaternion to take the shorter path
	if dot < 0 {
		other = Quat{X: -other.X, Y: -other.Y, Z: -other.Z, W: -other.W}
		dot = -dot
	}

	// If quaternions are very close, use linear interpolation to avoid division by zero
	if dot > 0.9995 {
		return q.Lerp(other, t)
	}

	theta0 := float32(math.Acos(float64(dot)))
	theta := theta0 * t
	sinTheta := float32(math.Sin(float64(theta)))
	sinTheta0 := float32(math.Sin(float64(theta0)))

	s0 := float32(math.Cos(float64(theta))) - dot*sinTheta/sinTheta0
	s1 := sinTheta / sinTheta0

	return Quat{
		X: q.X*s0 + other.X*s1,
		Y: q.Y*s0 + other.Y*s1,
		Z: q.Z*s0 + other.Z*s1,
		W: q.W*s0 + other.W*s1,
	}
}

// ToMat4 converts the quaternion to a 4x4 rotation matrix.
func (q Quat) ToMat4() Mat4 {
	q = q.Normalize()

	xx := q.X * q.X
	xy := q.X * q.Y
	xz := q.X * q.Z
	xw := q.X * q.W
	yy := q.Y * q.Y
	yz := q.Y * q.Z
	yw := q.Y * q.W
	zz := q.Z * q.Z
	zw := q.Z * q.W

	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + zw), 2 * (xz - yw), 0,
		2 * (xy - zw), 1 - 2*(xx+zz), 2 * (yz + xw), 0,
		2 * (xz + yw), 2 * (yz - xw), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// Lerp performs normalized linear interpolation between two quaternions.
func (q Quat) Lerp(other Quat, t float32) Quat {
	return Quat{
		X: q.X + t*(other.X-q.X),
		Y: q.Y + t*(other.Y-q.Y),
		Z: q.Z + t*(other.Z-q.Z),
		W: q.W + t*(other.W-q.W),
	}.Normalize()
}

// Mul multiplies two quaternions (q applied after other).
func (q Quat) Mul(other Quat) Quat {
	return Quat{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp32(x, lo, hi float32) float32 {
	return max(lo, min(hi, x))
}
