package main

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"signal_router/pkg/api"
	"signal_router/pkg/config"
	"signal_router/pkg/graph"
	"signal_router/pkg/osrm"
	"signal_router/pkg/playback"
	"signal_router/pkg/routing"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.WithError(err).Warn("Failed to read .env")
	}
	cfg, err := config.Load(os.Args[0], os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := config.SetupLogging(cfg.LogLevel); err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}

	start := time.Now()

	// Load graph.
	gcfg := graph.DehradunConfig()
	if cfg.GraphPath != "" {
		log.WithField("path", cfg.GraphPath).Info("Loading graph")
		gcfg, err = graph.LoadConfig(cfg.GraphPath)
		if err != nil {
			log.Fatalf("Failed to load graph: %v", err)
		}
	} else {
		log.Info("No graph file given, using built-in Dehradun scenario")
	}
	g, err := graph.Build(gcfg)
	if err != nil {
		log.Fatalf("Invalid graph: %v", err)
	}
	log.WithFields(log.Fields{
		"waypoints":  g.NumNodes,
		"edges":      g.NumEdges,
		"components": graph.NumComponents(g),
	}).Info("Graph loaded")

	// Build routing engine and playback session.
	engine := routing.NewEngine(g)
	session := playback.NewSession(g)
	defer session.Close()

	var roads api.RoadRouter
	if cfg.OSRMURL != "" {
		roads = osrm.New(cfg.OSRMURL)
	}

	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("Ready")

	// Setup HTTP server.
	scfg := api.DefaultConfig(cfg.Addr())
	scfg.CORSOrigin = cfg.CORSOrigin
	scfg.MaxConcurrent = cfg.MaxConcurrent

	handlers := api.NewHandlers(api.Deps{
		Graph:     g,
		Router:    engine,
		Sim:       session,
		Roads:     roads,
		StepDelay: cfg.StepDelay,
	})
	srv := api.NewServer(scfg, handlers)

	if err := api.ListenAndServe(srv); err != nil {
		log.WithError(err).Error("Server stopped")
		session.Close()
		os.Exit(1)
	}
}
