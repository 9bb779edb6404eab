package domain

// Vector2D is the host representation of a two component vector.
type Vector2D struct {
	X, Y float64
}

// Vector3D is the host representation of a three component vector.
type Vector3D struct {
	X, Y, Z float64
}

// Vector4D is the host representation of a four component vector.
type Vector4D struct {
	X, Y, Z, W float64
}

// Axes returns the components in order.
func (v Vector2D) Axes() []float64 { return []float64{v.X, v.Y} }

// Axes returns the components in order.
func (v Vector3D) Axes() []float64 { return []float64{v.X, v.Y, v.Z} }

// Axes returns the components in order.
func (v Vector4D) Axes() []float64 { return []float64{v.X, v.Y, v.Z, v.W} }
