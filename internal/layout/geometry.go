package layout

// Vec3 is a point or offset in 3D space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Quaternion is a rotation in xyzw order.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// IdentityQuaternion returns the no-rotation quaternion.
func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

// Rotate applies the rotation to a vector (q * v * q⁻¹, unit quaternion
// assumed).
func (q Quaternion) Rotate(v Vec3) Vec3 {
	// t = 2 * cross(q.xyz, v)
	tx := 2 * (q.Y*v.Z - q.Z*v.Y)
	ty := 2 * (q.Z*v.X - q.X*v.Z)
	tz := 2 * (q.X*v.Y - q.Y*v.X)
	// v' = v + w*t + cross(q.xyz, t)
	return Vec3{
		X: v.X + q.W*tx + (q.Y*tz - q.Z*ty),
		Y: v.Y + q.W*ty + (q.Z*tx - q.X*tz),
		Z: v.Z + q.W*tz + (q.X*ty - q.Y*tx),
	}
}

// Transform is a board pose: position plus orientation. Board-local points
// map into world space by rotating with the orientation and translating by
// the position.
type Transform struct {
	Position    Vec3       `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// Apply maps a board-local point into world space.
func (t Transform) Apply(p Vec3) Vec3 {
	return t.Orientation.Rotate(p).Add(t.Position)
}
