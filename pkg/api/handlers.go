package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"

	"signal_router/pkg/geo"
	"signal_router/pkg/graph"
	"signal_router/pkg/osrm"
	"signal_router/pkg/playback"
	"signal_router/pkg/render"
	"signal_router/pkg/routing"
)

// maxStepDelay bounds the per-waypoint delay a client may request.
const maxStepDelay = time.Minute

// Simulator runs signal playbacks. *playback.Session implements it.
type Simulator interface {
	Play(r routing.Route, vehicle routing.VehicleType, stepDelay time.Duration) (playback.Run, error)
	Cancel() bool
	Snapshot() playback.Snapshot
	Subscribe(buf int) (<-chan playback.Event, func())
}

// RoadRouter returns road geometry between two points. *osrm.Client
// implements it.
type RoadRouter interface {
	Route(ctx context.Context, from, to geo.LatLng) (*osrm.Route, error)
}

// Deps are the collaborators used by the handlers. Roads may be nil, which
// disables POST /road-route.
type Deps struct {
	Graph     *graph.Graph
	Router    routing.Router
	Sim       Simulator
	Roads     RoadRouter
	StepDelay time.Duration // default playback delay
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	g         *graph.Graph
	router    routing.Router
	sim       Simulator
	roads     RoadRouter
	stepDelay time.Duration
	stats     StatsResponse
	now       func() time.Time
}

// NewHandlers creates handlers over deps.
func NewHandlers(deps Deps) *Handlers {
	stepDelay := deps.StepDelay
	if stepDelay <= 0 {
		stepDelay = playback.DefaultStepDelay
	}
	return &Handlers{
		g:         deps.Graph,
		router:    deps.Router,
		sim:       deps.Sim,
		roads:     deps.Roads,
		stepDelay: stepDelay,
		stats: StatsResponse{
			NumWaypoints:  deps.Graph.Len(),
			NumEdges:      int(deps.Graph.NumEdges),
			NumComponents: graph.NumComponents(deps.Graph),
		},
		now: time.Now,
	}
}

// HandleRoute handles POST /api/v1/route.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	vehicle, ok := parseVehicle(w, req.Vehicle)
	if !ok {
		return
	}

	route, ok := h.computeRoute(w, r, req.Start, req.End)
	if !ok {
		return
	}

	resp := h.routeResponse(route)
	resp.Vehicle = string(vehicle)
	resp.Message = routing.FindingMessage(vehicle, req.Start, req.End)
	writeJSON(w, http.StatusOK, resp)
}

// HandlePointRoute handles POST /api/v1/route/points.
func (h *Handlers) HandlePointRoute(w http.ResponseWriter, r *http.Request) {
	start, end, ok := decodePoints(w, r)
	if !ok {
		return
	}

	pr, err := h.router.RouteBetweenPoints(r.Context(), start, end)
	if err != nil {
		var se *routing.SnapError
		if errors.As(err, &se) && errors.Is(err, routing.ErrPointTooFar) {
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error:          "point_too_far",
				Field:          se.Field,
				Message:        se.Error(),
				DistanceMeters: math.Round(se.Dist),
			})
			return
		}
		h.writeRouteError(w, err, "", "")
		return
	}

	writeJSON(w, http.StatusOK, PointRouteResponse{
		RouteResponse: h.routeResponse(pr.Route),
		StartSnap:     SnapJSON{ID: pr.StartSnap.ID, DistanceMeters: pr.StartSnap.Dist},
		EndSnap:       SnapJSON{ID: pr.EndSnap.ID, DistanceMeters: pr.EndSnap.Dist},
		TotalCost:     pr.Cost,
	})
}

// HandleStartSimulation handles POST /api/v1/simulations.
func (h *Handlers) HandleStartSimulation(w http.ResponseWriter, r *http.Request) {
	var req SimulationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	vehicle, ok := parseVehicle(w, req.Vehicle)
	if !ok {
		return
	}
	stepDelay := h.stepDelay
	if req.StepDelayMS != 0 {
		// Range-check before converting so large values cannot wrap.
		if req.StepDelayMS < 0 || req.StepDelayMS > maxStepDelay.Milliseconds() {
			writeError(w, http.StatusBadRequest, "invalid_step_delay", "step_delay_ms")
			return
		}
		stepDelay = time.Duration(req.StepDelayMS) * time.Millisecond
	}

	log.WithField("vehicle", vehicle.String()).Info(routing.FindingMessage(vehicle, req.Start, req.End))
	route, ok := h.computeRoute(w, r, req.Start, req.End)
	if !ok {
		return
	}

	run, err := h.sim.Play(route, vehicle, stepDelay)
	if err != nil {
		log.WithError(err).Error("Failed to start playback")
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	resp := h.routeResponse(route)
	resp.Vehicle = string(vehicle)
	w.Header().Set("Location", "/api/v1/simulations/current")
	writeJSON(w, http.StatusCreated, SimulationResponse{Run: run, Route: resp})
}

// HandleCancelSimulation handles DELETE /api/v1/simulations/current.
func (h *Handlers) HandleCancelSimulation(w http.ResponseWriter, r *http.Request) {
	if h.sim.Cancel() {
		log.Info("Playback cancelled by client")
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSimulationState handles GET /api/v1/simulations/current.
func (h *Handlers) HandleSimulationState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.simulationState())
}

func (h *Handlers) simulationState() SimulationState {
	snap := h.sim.Snapshot()
	state := SimulationState{Run: snap.Run, Running: snap.Running, Signals: snap.Signals}
	if snap.Run == nil {
		return state
	}
	state.Progress = 1
	if snap.Running {
		state.Progress = playback.Progress(*snap.Run, h.now())
	}
	if pos, ok := playback.Position(h.g, snap.Run.Route, state.Progress); ok {
		state.Vehicle = &pos
	}
	return state
}

// HandleRouteGeoJSON handles GET /api/v1/route.geojson. With start and end
// query parameters it renders that route; without them it renders the
// current simulation. road=1 adds the road geometry between the route's
// endpoints when a road router is configured.
func (h *Handlers) HandleRouteGeoJSON(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := h.simulationState()
	scene := render.Scene{Signals: state.Signals}

	switch start, end := q.Get("start"), q.Get("end"); {
	case start != "" || end != "":
		route, ok := h.computeRoute(w, r, start, end)
		if !ok {
			return
		}
		scene.Route = route.Waypoints
	case state.Run != nil:
		scene.Route = state.Run.Route
		scene.Vehicle = state.Vehicle
	}
	if road, _ := strconv.ParseBool(q.Get("road")); road {
		scene.Road = h.roadLine(r.Context(), scene.Route)
	}

	fc := render.FeatureCollection(h.g, scene)
	data, err := fc.MarshalJSON()
	if err != nil {
		log.WithError(err).Error("Failed to encode GeoJSON")
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(data)
}

// roadLine fetches road geometry from the first to the last waypoint of
// route. Failures are logged and yield no line.
func (h *Handlers) roadLine(ctx context.Context, route []string) orb.LineString {
	if h.roads == nil || len(route) < 2 {
		return nil
	}
	from, _ := h.g.Waypoint(route[0])
	to, _ := h.g.Waypoint(route[len(route)-1])
	rr, err := h.roads.Route(ctx, from.LatLng(), to.LatLng())
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"from": from.ID, "to": to.ID}).Warn("Road geometry unavailable")
		return nil
	}
	return rr.Line
}

// HandleRoadRoute handles POST /api/v1/road-route.
func (h *Handlers) HandleRoadRoute(w http.ResponseWriter, r *http.Request) {
	if h.roads == nil {
		writeError(w, http.StatusServiceUnavailable, "road_routing_disabled", "")
		return
	}
	start, end, ok := decodePoints(w, r)
	if !ok {
		return
	}

	route, err := h.roads.Route(r.Context(), start, end)
	if err != nil {
		log.WithError(err).Warn("Road routing failed")
		switch {
		case errors.Is(err, osrm.ErrNoRoute):
			writeErrorMessage(w, http.StatusNotFound, "no_route_found", "", err.Error())
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
		default:
			writeError(w, http.StatusBadGateway, "upstream_error", "")
		}
		return
	}

	writeJSON(w, http.StatusOK, RoadRouteResponse{
		Coordinates:     route.Coordinates,
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
	})
}

// HandleWaypoints handles GET /api/v1/waypoints.
func (h *Handlers) HandleWaypoints(w http.ResponseWriter, r *http.Request) {
	wps := h.g.Waypoints()
	out := make([]WaypointJSON, len(wps))
	for i, wp := range wps {
		out[i] = WaypointJSON{ID: wp.ID, Lat: wp.Lat, Lng: wp.Lng}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleVehicles handles GET /api/v1/vehicles.
func (h *Handlers) HandleVehicles(w http.ResponseWriter, r *http.Request) {
	out := make([]VehicleJSON, len(routing.VehicleTypes))
	for i, v := range routing.VehicleTypes {
		out[i] = VehicleJSON{ID: v, Name: v.String()}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats)
}

// computeRoute routes between two waypoint ids, writing the error response
// itself on failure.
func (h *Handlers) computeRoute(w http.ResponseWriter, r *http.Request, start, end string) (routing.Route, bool) {
	if start == "" {
		writeError(w, http.StatusBadRequest, "missing_waypoint", "start")
		return routing.Route{}, false
	}
	if end == "" {
		writeError(w, http.StatusBadRequest, "missing_waypoint", "end")
		return routing.Route{}, false
	}
	route, err := h.router.Route(r.Context(), start, end)
	if err != nil {
		h.writeRouteError(w, err, start, end)
		return routing.Route{}, false
	}
	return route, true
}

func (h *Handlers) writeRouteError(w http.ResponseWriter, err error, start, end string) {
	var unknown *routing.UnknownWaypointError
	switch {
	case errors.As(err, &unknown):
		field := ""
		switch unknown.ID {
		case start:
			field = "start"
		case end:
			field = "end"
		}
		writeErrorMessage(w, http.StatusBadRequest, "unknown_waypoint", field, unknown.Error())
	case errors.Is(err, routing.ErrNoPath):
		writeErrorMessage(w, http.StatusNotFound, "no_route_found", "", err.Error())
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
	default:
		log.WithError(err).Error("Route computation failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func (h *Handlers) routeResponse(route routing.Route) RouteResponse {
	wps := make([]WaypointJSON, 0, route.Len())
	for _, id := range route.Waypoints {
		wp, _ := h.g.Waypoint(id)
		wps = append(wps, WaypointJSON{ID: id, Lat: wp.Lat, Lng: wp.Lng})
	}
	st := routing.ComputeStats(h.g, route)
	return RouteResponse{
		Waypoints:   wps,
		TotalWeight: route.TotalWeight,
		Stats:       StatsJSON{DistanceKm: st.DistanceKm, ETAMinutes: st.ETAMinutes, Signals: st.Signals},
	}
}

// decodeJSON enforces the content type and decodes a small JSON body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	return true
}

func decodePoints(w http.ResponseWriter, r *http.Request) (start, end geo.LatLng, ok bool) {
	var req PointRouteRequest
	if !decodeJSON(w, r, &req) {
		return start, end, false
	}
	var err error
	if start, err = parsePoint(req.Start); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid_coordinates", "start", err.Error())
		return start, end, false
	}
	if end, err = parsePoint(req.End); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid_coordinates", "end", err.Error())
		return start, end, false
	}
	return start, end, true
}

// parsePoint accepts {"lat":..,"lng":..} or "lat,lng".
func parsePoint(raw json.RawMessage) (geo.LatLng, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return geo.LatLng{}, geo.ErrCoordRequired
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return geo.LatLng{}, geo.ErrCoordFormat
		}
		return geo.ParseLatLng(s)
	}
	var ll geo.LatLng
	if err := json.Unmarshal(raw, &ll); err != nil {
		return geo.LatLng{}, geo.ErrCoordFormat
	}
	return ll, geo.Validate(ll)
}

func parseVehicle(w http.ResponseWriter, s string) (routing.VehicleType, bool) {
	if s == "" {
		return routing.Ambulance, true
	}
	v, err := routing.ParseVehicleType(s)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid_vehicle", "vehicle", err.Error())
		return "", false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	writeErrorMessage(w, status, code, field, "")
}

func writeErrorMessage(w http.ResponseWriter, status int, code, field, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Field: field, Message: msg})
}
