// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package geometry

// Expanse is the navigable extent of an area. Placement tooling assumes
// a child area's expanse lies within its parent's, but that is not
// mechanically enforced here.
type Expanse interface {
	// Contains reports whether the point lies inside the expanse.
	Contains(p Position) bool

	// Bounds returns the axis-aligned bounding box of the expanse.
	Bounds() (min, max Position)
}

// Rect is a rectangular expanse spanning [Min, Max] inclusive.
type Rect struct {
	Min Position
	Max Position
}

// NewRect creates a rectangle from any two opposite corners.
func NewRect(a, b Position) Rect {
	r := Rect{Min: a, Max: b}
	if r.Min.X > r.Max.X {
		r.Min.X, r.Max.X = r.Max.X, r.Min.X
	}
	if r.Min.Y > r.Max.Y {
		r.Min.Y, r.Max.Y = r.Max.Y, r.Min.Y
	}
	return r
}

// Contains implements Expanse.
func (r Rect) Contains(p Position) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Bounds implements Expanse.
func (r Rect) Bounds() (Position, Position) {
	return r.Min, r.Max
}

// Circle is a circular expanse around a center point.
type Circle struct {
	Center Position
	Radius float64
}

// Contains implements Expanse.
func (c Circle) Contains(p Position) bool {
	return c.Center.DistanceTo(p) <= c.Radius
}

// Bounds implements Expanse.
func (c Circle) Bounds() (Position, Position) {
	return Position{X: c.Center.X - c.Radius, Y: c.Center.Y - c.Radius},
		Position{X: c.Center.X + c.Radius, Y: c.Center.Y + c.Radius}
}
