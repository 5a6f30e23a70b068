// Command signals builds a waypoint graph from OpenStreetMap traffic signals,
// read from a local .osm.pbf / .osm file or fetched from the Overpass API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"signal_router/pkg/config"
	"signal_router/pkg/geo"
	"signal_router/pkg/graph"
	"signal_router/pkg/signals"
)

// dehradunBBox covers the city and its approach roads.
var dehradunBBox = signals.BBox{MinLat: 30.25, MaxLat: 30.40, MinLng: 77.95, MaxLng: 78.10}

func main() {
	input := flag.String("input", "", "Path to .osm.pbf or .osm file")
	overpassURL := flag.String("overpass-url", "", "Fetch signals from this Overpass interpreter instead of a file (\"default\" = public endpoint)")
	from := flag.String("from", "", "With --overpass-url: first corner as lat,lng")
	to := flag.String("to", "", "With --overpass-url: second corner as lat,lng")
	pad := flag.Float64("pad", signals.DefaultPadding, "Padding in degrees around --from/--to")
	bbox := flag.String("bbox", "", "Bounding box filter: minLat,minLng,maxLat,maxLng")
	dehradun := flag.Bool("dehradun", false, "Shortcut for --bbox 30.25,77.95,30.40,78.10")
	maxDist := flag.Float64("max-dist", graph.DefaultProximityMeters, "Connect signals closer than this many meters")
	keepAll := flag.Bool("keep-all", false, "Keep every component instead of only the largest")
	output := flag.String("output", "graph.json", "Output waypoint graph JSON path")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.WithError(err).Warn("Failed to read .env")
	}
	if err := config.SetupLogging(*logLevel); err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}

	if *input == "" && *overpassURL == "" {
		fmt.Fprintln(os.Stderr, "Usage: signals --input <file.osm.pbf|file.osm> [--dehradun | --bbox minLat,minLng,maxLat,maxLng] [--output graph.json]")
		fmt.Fprintln(os.Stderr, "       signals --overpass-url default --from lat,lng --to lat,lng [--pad 0.002] [--output graph.json]")
		os.Exit(1)
	}

	var opts signals.Options
	switch {
	case *dehradun:
		opts.BBox = dehradunBBox
	case *bbox != "":
		var b signals.BBox
		if _, err := fmt.Sscanf(*bbox, "%f,%f,%f,%f", &b.MinLat, &b.MinLng, &b.MaxLat, &b.MaxLng); err != nil {
			log.Fatalf("Invalid bbox format (expected minLat,minLng,maxLat,maxLng): %v", err)
		}
		opts.BBox = b
	}
	if !opts.BBox.IsZero() {
		log.WithField("bbox", opts.BBox.String()).Info("Using bounding box filter")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	start := time.Now()

	// Step 1: Collect signals.
	var points []graph.Waypoint
	var err error
	if *overpassURL != "" {
		points, err = fetch(ctx, *overpassURL, *from, *to, *pad, opts.BBox)
	} else {
		log.WithField("input", *input).Info("Reading OSM data")
		points, err = signals.ReadFile(ctx, *input, opts)
	}
	if err != nil {
		log.Fatalf("Failed to collect signals: %v", err)
	}
	if len(points) == 0 {
		log.Fatal("No traffic signals found")
	}

	// Step 2: Connect nearby signals.
	cfg := graph.BuildProximity(points, *maxDist)
	g, err := graph.Build(cfg)
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}
	log.WithFields(log.Fields{
		"waypoints":  g.NumNodes,
		"edges":      g.NumEdges,
		"components": graph.NumComponents(g),
	}).Info("Proximity graph built")

	// Step 3: Extract largest connected component.
	if !*keepAll {
		nodes := graph.LargestComponent(g)
		g = graph.FilterToComponent(g, nodes)
		log.WithFields(log.Fields{"waypoints": g.NumNodes, "edges": g.NumEdges}).Info("Kept largest component")
	}

	// Step 4: Write.
	if err := graph.WriteConfig(*output, g.Config()); err != nil {
		log.Fatalf("Failed to write graph: %v", err)
	}
	log.WithFields(log.Fields{
		"output":  *output,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("Done")
}

func fetch(ctx context.Context, baseURL, from, to string, pad float64, filter signals.BBox) ([]graph.Waypoint, error) {
	box := filter
	if from != "" || to != "" {
		a, err := geo.ParseLatLng(from)
		if err != nil {
			return nil, fmt.Errorf("--from: %w", err)
		}
		b, err := geo.ParseLatLng(to)
		if err != nil {
			return nil, fmt.Errorf("--to: %w", err)
		}
		box = signals.PaddedBBox(a, b, pad)
	}
	if box.IsZero() {
		return nil, fmt.Errorf("overpass needs --from/--to, --bbox or --dehradun")
	}
	if baseURL == "default" {
		baseURL = ""
	}

	log.WithField("bbox", box.String()).Info("Querying Overpass")
	return signals.NewOverpass(baseURL).FetchSignals(ctx, box)
}
