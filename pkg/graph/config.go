package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Config is the static description a Graph is built from.
type Config struct {
	Waypoints []Waypoint `json:"waypoints"`
	Edges     []Edge     `json:"edges"`
}

// DehradunConfig returns the built-in six-place city graph.
func DehradunConfig() Config {
	return Config{
		Waypoints: []Waypoint{
			{ID: "ISBT", Lat: 30.2876, Lng: 77.9983},
			{ID: "Subhash", Lat: 30.2980, Lng: 78.0120},
			{ID: "Survey", Lat: 30.3260, Lng: 78.0500},
			{ID: "ClockTower", Lat: 30.3243, Lng: 78.0414},
			{ID: "Rajpur", Lat: 30.3440, Lng: 78.0600},
			{ID: "Ballupur", Lat: 30.3330, Lng: 78.0110},
		},
		Edges: []Edge{
			{A: "ISBT", B: "Subhash", Weight: 3},
			{A: "Subhash", B: "Survey", Weight: 2},
			{A: "Survey", B: "ClockTower", Weight: 1},
			{A: "ClockTower", B: "Rajpur", Weight: 3},
			{A: "Survey", B: "Ballupur", Weight: 3},
			{A: "Ballupur", B: "ISBT", Weight: 4},
		},
	}
}

// ReadConfig decodes a JSON graph config.
func ReadConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode graph config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads a JSON graph config from path.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open graph config: %w", err)
	}
	defer f.Close()
	return ReadConfig(f)
}

// WriteConfig writes cfg as indented JSON to path, replacing it atomically.
func WriteConfig(path string, cfg Config) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // no-op after a successful rename
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode graph config: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
