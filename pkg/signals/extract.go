package signals

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	log "github.com/sirupsen/logrus"

	"signal_router/pkg/graph"
)

// signalCrossings lists crossing tag values that are controlled by a signal.
var signalCrossings = map[string]bool{
	"traffic_signals": true,
	"pelican":         true,
	"toucan":          true,
}

// IsTrafficSignal returns true if a node with these tags is a traffic signal.
func IsTrafficSignal(tags osm.Tags) bool {
	if tags.Find("disused") == "yes" {
		return false
	}
	switch tags.Find("highway") {
	case "traffic_signals":
		return true
	case "crossing":
		return signalCrossings[tags.Find("crossing")]
	}
	return false
}

// Options configures signal extraction.
type Options struct {
	BBox BBox // if non-zero, keep only signals inside the box
}

// scanner is the subset of the osmpbf and osmxml scanners used here.
type scanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
	Close() error
}

// ReadPBF extracts traffic signals from an OSM PBF stream.
func ReadPBF(ctx context.Context, r io.Reader, opts Options) ([]graph.Waypoint, error) {
	s := osmpbf.New(ctx, r, 1)
	s.SkipWays = true
	s.SkipRelations = true
	return collect(s, opts)
}

// ReadXML extracts traffic signals from an OSM XML stream. Overpass
// responses with out:xml use the same format.
func ReadXML(ctx context.Context, r io.Reader, opts Options) ([]graph.Waypoint, error) {
	return collect(osmxml.New(ctx, r), opts)
}

// ReadFile extracts traffic signals from a .osm.pbf or .osm file, chosen by
// extension.
func ReadFile(ctx context.Context, path string, opts Options) ([]graph.Waypoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.HasSuffix(path, ".pbf") {
		return ReadPBF(ctx, f, opts)
	}
	return ReadXML(ctx, f, opts)
}

func collect(s scanner, opts Options) ([]graph.Waypoint, error) {
	defer s.Close()

	useBBox := !opts.BBox.IsZero()
	seen := make(map[osm.NodeID]struct{})
	var out []graph.Waypoint
	var nodes, filtered int

	for s.Scan() {
		n, ok := s.Object().(*osm.Node)
		if !ok {
			continue
		}
		nodes++
		if !IsTrafficSignal(n.Tags) {
			continue
		}
		if useBBox && !opts.BBox.Contains(n.Lat, n.Lon) {
			filtered++
			continue
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, graph.Waypoint{ID: NodeWaypointID(n.ID), Lat: n.Lat, Lng: n.Lon})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan nodes: %w", err)
	}

	log.WithFields(log.Fields{
		"nodes":    nodes,
		"signals":  len(out),
		"filtered": filtered,
	}).Info("Signal extraction complete")
	return out, nil
}

// NodeWaypointID returns the waypoint id used for an OSM node.
func NodeWaypointID(id osm.NodeID) string {
	return fmt.Sprintf("n%d", int64(id))
}
