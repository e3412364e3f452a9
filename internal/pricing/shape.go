package pricing

import (
	"fmt"
	"math"
	"strings"
)

// ShapeKind identifies the stock geometry of a part.
type ShapeKind string

const (
	ShapeRect  ShapeKind = "RECT"
	ShapeRound ShapeKind = "ROUND"
)

// ParseShapeKind accepts the persisted form as well as lower-case input.
func ParseShapeKind(raw string) (ShapeKind, error) {
	switch ShapeKind(strings.ToUpper(strings.TrimSpace(raw))) {
	case ShapeRect:
		return ShapeRect, nil
	case ShapeRound:
		return ShapeRound, nil
	default:
		return "", fmt.Errorf("unknown shape %q", raw)
	}
}

// Shape is a part geometry in millimetres.
type Shape interface {
	Kind() ShapeKind
	// Volume returns mm³.
	Volume() float64
	// Dims flattens the shape into the width/depth/height storage slots.
	Dims() (width, depth, height float64)
}

// Rect is a rectangular block.
type Rect struct {
	Width  float64
	Depth  float64
	Height float64
}

func (r Rect) Kind() ShapeKind { return ShapeRect }

func (r Rect) Volume() float64 { return r.Width * r.Depth * r.Height }

func (r Rect) Dims() (float64, float64, float64) { return r.Width, r.Depth, r.Height }

// Round is a bar section. Diameter is stored in the width slot and Length in the depth slot.
type Round struct {
	Diameter float64
	Length   float64
}

func (r Round) Kind() ShapeKind { return ShapeRound }

func (r Round) Volume() float64 {
	radius := r.Diameter / 2
	return math.Pi * radius * radius * r.Length
}

func (r Round) Dims() (float64, float64, float64) { return r.Diameter, r.Length, 0 }

// PartSpec pairs the finished geometry with the raw stock it is machined from.
type PartSpec struct {
	Finished Shape
	Raw      Shape
}

// NewRectPart builds a rectangular part from finished and raw dimensions.
func NewRectPart(specW, specD, specH, rawW, rawD, rawH float64) PartSpec {
	return PartSpec{
		Finished: Rect{Width: specW, Depth: specD, Height: specH},
		Raw:      Rect{Width: rawW, Depth: rawD, Height: rawH},
	}
}

// NewRoundPart builds a round bar part from finished and raw dimensions.
func NewRoundPart(specDia, specLen, rawDia, rawLen float64) PartSpec {
	return PartSpec{
		Finished: Round{Diameter: specDia, Length: specLen},
		Raw:      Round{Diameter: rawDia, Length: rawLen},
	}
}

// PartFromDims rebuilds a PartSpec from flattened width/depth/height slots.
// Height slots are ignored for round parts.
func PartFromDims(kind ShapeKind, spec, raw [3]float64) PartSpec {
	if kind == ShapeRound {
		return NewRoundPart(spec[0], spec[1], raw[0], raw[1])
	}
	return NewRectPart(spec[0], spec[1], spec[2], raw[0], raw[1], raw[2])
}

// Kind reports the part's shape, defaulting to RECT for an empty spec.
func (p PartSpec) Kind() ShapeKind {
	if p.Raw != nil {
		return p.Raw.Kind()
	}
	if p.Finished != nil {
		return p.Finished.Kind()
	}
	return ShapeRect
}

// RawVolume returns the raw stock volume in mm³, or 0 when no raw shape is set.
func (p PartSpec) RawVolume() float64 {
	if p.Raw == nil {
		return 0
	}
	return p.Raw.Volume()
}

// Margin is the machining allowance added to finished dimensions to get raw stock.
type Margin struct {
	Width    float64 `json:"width"`
	Depth    float64 `json:"depth"`
	Height   float64 `json:"height"`
	Diameter float64 `json:"diameter"`
	Length   float64 `json:"length"`
}

// MarginByShape holds the shop's default allowance per shape.
type MarginByShape struct {
	Rect  Margin `json:"rect"`
	Round Margin `json:"round"`
}

// DefaultMarginByShape is used when a company has not configured its own allowances.
var DefaultMarginByShape = MarginByShape{
	Rect:  Margin{Width: 5, Depth: 5, Height: 3},
	Round: Margin{Diameter: 3, Length: 5},
}

// For returns the margin that applies to kind.
func (m MarginByShape) For(kind ShapeKind) Margin {
	if kind == ShapeRound {
		return m.Round
	}
	return m.Rect
}

// WithMargin derives the raw stock from a finished shape.
func WithMargin(finished Shape, m Margin) PartSpec {
	switch s := finished.(type) {
	case Round:
		return NewRoundPart(s.Diameter, s.Length, s.Diameter+m.Diameter, s.Length+m.Length)
	case Rect:
		return NewRectPart(s.Width, s.Depth, s.Height, s.Width+m.Width, s.Depth+m.Depth, s.Height+m.Height)
	default:
		return PartSpec{Finished: finished, Raw: finished}
	}
}
