// Package render builds GeoJSON for map renderers: the routed path, every
// signal with its current state, and optionally the vehicle and road line.
package render

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"signal_router/pkg/geo"
	"signal_router/pkg/graph"
	"signal_router/pkg/playback"
)

// Feature kinds, stored in the "kind" property.
const (
	KindRoute   = "route"
	KindSignal  = "signal"
	KindVehicle = "vehicle"
	KindRoad    = "road"
)

// Scene is what a renderer should draw.
type Scene struct {
	Route   []string                        // waypoint ids in travel order
	Signals map[string]playback.SignalState // missing ids are idle
	Vehicle *geo.LatLng
	Road    orb.LineString
}

func point(ll geo.LatLng) orb.Point { return orb.Point{ll.Lng, ll.Lat} }

// FeatureCollection renders s over g. Route ids unknown to g are skipped.
func FeatureCollection(g *graph.Graph, s Scene) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	onRoute := make(map[string]int, len(s.Route))
	if len(s.Route) > 0 {
		line := make(orb.LineString, 0, len(s.Route))
		for i, id := range s.Route {
			w, ok := g.Waypoint(id)
			if !ok {
				continue
			}
			line = append(line, point(w.LatLng()))
			onRoute[id] = i
		}
		f := geojson.NewFeature(line)
		f.Properties["kind"] = KindRoute
		f.Properties["waypoints"] = s.Route
		fc.Append(f)
	}

	if len(s.Road) > 0 {
		f := geojson.NewFeature(s.Road)
		f.Properties["kind"] = KindRoad
		fc.Append(f)
	}

	for _, w := range g.Waypoints() {
		f := geojson.NewFeature(point(w.LatLng()))
		f.ID = w.ID
		f.Properties["kind"] = KindSignal
		f.Properties["id"] = w.ID
		f.Properties["state"] = s.Signals[w.ID].String()
		if i, ok := onRoute[w.ID]; ok {
			f.Properties["route_index"] = i
		}
		fc.Append(f)
	}

	if s.Vehicle != nil {
		f := geojson.NewFeature(point(*s.Vehicle))
		f.Properties["kind"] = KindVehicle
		fc.Append(f)
	}

	return fc
}
