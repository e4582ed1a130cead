package domain

import "strconv"

// Coordinate is a WGS 84 position. Equality is exact on every field.
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Elevation float64 `json:"elev"`
}

// NewCoordinate returns a coordinate at sea level.
func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{Latitude: lat, Longitude: lon}
}

func (c Coordinate) String() string {
	return "Lat: " + FormatDegrees(c.Latitude) +
		", Long: " + FormatDegrees(c.Longitude) +
		", Elev: " + FormatDegrees(c.Elevation)
}

// FormatDegrees renders a float with the shortest exact representation,
// always keeping a fractional part ("1" becomes "1.0").
func FormatDegrees(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', 'N', 'I':
			return s
		}
	}
	return s + ".0"
}

// BoundingBox is an axis-aligned viewport described by all four corners.
// Build it with one of the two corner-pair constructors so the corners
// always agree with each other.
type BoundingBox struct {
	TopLeft     Coordinate `json:"top_left"`
	TopRight    Coordinate `json:"top_right"`
	BottomLeft  Coordinate `json:"bottom_left"`
	BottomRight Coordinate `json:"bottom_right"`
}

// BoundingBoxFromBottomLeftTopRight builds a box from its south-west and
// north-east corners.
func BoundingBoxFromBottomLeftTopRight(bl, tr Coordinate) BoundingBox {
	return BoundingBox{
		BottomLeft:  bl,
		TopRight:    tr,
		TopLeft:     NewCoordinate(tr.Latitude, bl.Longitude),
		BottomRight: NewCoordinate(bl.Latitude, tr.Longitude),
	}
}

// BoundingBoxFromTopLeftBottomRight builds a box from its north-west and
// south-east corners.
func BoundingBoxFromTopLeftBottomRight(tl, br Coordinate) BoundingBox {
	return BoundingBox{
		TopLeft:     tl,
		BottomRight: br,
		TopRight:    NewCoordinate(tl.Latitude, br.Longitude),
		BottomLeft:  NewCoordinate(br.Latitude, tl.Longitude),
	}
}

func (b BoundingBox) String() string {
	return "Bounding Box:\n TL: " + b.TopLeft.String() +
		"\n TR: " + b.TopRight.String() +
		"\n BL: " + b.BottomLeft.String() +
		"\n BR: " + b.BottomRight.String()
}

// BoundsConvention names which pair of opposite corners a bounds string holds.
type BoundsConvention string

const (
	// BoundsBottomLeftTopRight is "south-west|north-east".
	BoundsBottomLeftTopRight BoundsConvention = "bl_tr"
	// BoundsTopLeftBottomRight is "north-west|south-east".
	BoundsTopLeftBottomRight BoundsConvention = "tl_br"
)

// Build turns two corners into a box following the convention.
func (c BoundsConvention) Build(first, second Coordinate) BoundingBox {
	if c == BoundsTopLeftBottomRight {
		return BoundingBoxFromTopLeftBottomRight(first, second)
	}
	return BoundingBoxFromBottomLeftTopRight(first, second)
}
