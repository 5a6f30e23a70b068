// Command simulate plays a route's signal transitions in the terminal.
// Ctrl-C cancels the playback.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"signal_router/pkg/config"
	"signal_router/pkg/graph"
	"signal_router/pkg/playback"
	"signal_router/pkg/routing"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.WithError(err).Warn("Failed to read .env")
	}
	cfg, err := config.FromEnv(config.Defaults())
	if err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}

	fs := newFlagSet(&cfg)
	start := fs.String("start", "ISBT", "Start waypoint id")
	end := fs.String("end", "Rajpur", "End waypoint id")
	vehicleName := fs.String("vehicle", string(routing.Ambulance), "Vehicle type (ambulance, fire_truck, normal_car)")
	list := fs.Bool("list", false, "List waypoints and exit")
	fs.Parse(os.Args[1:])

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := config.SetupLogging(cfg.LogLevel); err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}

	gcfg := graph.DehradunConfig()
	if cfg.GraphPath != "" {
		if gcfg, err = graph.LoadConfig(cfg.GraphPath); err != nil {
			log.Fatalf("Failed to load graph: %v", err)
		}
	}
	g, err := graph.Build(gcfg)
	if err != nil {
		log.Fatalf("Invalid graph: %v", err)
	}

	if *list {
		for _, w := range g.Waypoints() {
			fmt.Printf("%-16s %.4f,%.4f  -> %s\n", w.ID, w.Lat, w.Lng, strings.Join(g.Neighbors(w.ID), ", "))
		}
		return
	}

	vehicle, err := routing.ParseVehicleType(*vehicleName)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(routing.FindingMessage(vehicle, *start, *end))
	route, err := routing.ComputeRoute(g, *start, *end)
	if err != nil {
		var unknown *routing.UnknownWaypointError
		switch {
		case errors.As(err, &unknown):
			log.Fatalf("Unknown waypoint %q (use --list to see all)", unknown.ID)
		case errors.Is(err, routing.ErrNoPath):
			log.Fatalf("No route from %s to %s", *start, *end)
		default:
			log.Fatalf("Route failed: %v", err)
		}
	}

	st := routing.ComputeStats(g, route)
	fmt.Printf("Route: %s\n", strings.Join(route.Waypoints, " -> "))
	fmt.Printf("Weight: %g  Distance: %.2f km  ETA: %d min  Signals: %d\n",
		route.TotalWeight, st.DistanceKm, st.ETAMinutes, st.Signals)

	task := playback.Play(route.Waypoints, playback.Callbacks{
		OnEnter: func(id string) { fmt.Printf("  [GREEN] %s\n", id) },
		OnExit:  func(id string) { fmt.Printf("  [ idle] %s\n", id) },
	}, cfg.StepDelay)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigs:
			task.Cancel()
		case <-task.Done():
		}
	}()

	switch err := task.Wait(); {
	case err == nil:
		fmt.Printf("%s reached %s\n", vehicle, *end)
	case errors.Is(err, playback.ErrCancelled):
		fmt.Println("Playback cancelled")
		os.Exit(130)
	default:
		log.WithError(err).Error("Playback failed")
		os.Exit(1)
	}
}

// newFlagSet binds the shared graph, delay and log-level flags to cfg.
func newFlagSet(cfg *config.Config) *flag.FlagSet {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.StringVar(&cfg.GraphPath, "graph", cfg.GraphPath, "Path to waypoint graph JSON (empty = built-in Dehradun scenario)")
	fs.DurationVar(&cfg.StepDelay, "step-delay", cfg.StepDelay, "Delay per waypoint")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	return fs
}
