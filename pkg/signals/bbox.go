package signals

import (
	"fmt"

	"signal_router/pkg/geo"
)

// DefaultPadding is the margin, in degrees, added around a start/end pair.
const DefaultPadding = 0.002

// BBox defines a geographic bounding box for filtering.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains returns true if the point is inside the bounding box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// String formats the box in Overpass order: south,west,north,east.
func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLat, b.MinLng, b.MaxLat, b.MaxLng)
}

// PaddedBBox returns the smallest box containing a and b, grown by pad
// degrees on every side.
func PaddedBBox(a, b geo.LatLng, pad float64) BBox {
	return BBox{
		MinLat: min(a.Lat, b.Lat) - pad,
		MaxLat: max(a.Lat, b.Lat) + pad,
		MinLng: min(a.Lng, b.Lng) - pad,
		MaxLng: max(a.Lng, b.Lng) + pad,
	}
}
