// Command worldgen generates a world from a point cloud file and writes the
// map, its legend and the world data next to each other.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"worldmap-server/internal/landmass"
	"worldmap-server/internal/pointcloud"
	"worldmap-server/internal/shared/config"
	"worldmap-server/internal/shared/logger"
	"worldmap-server/internal/terrain"
	"worldmap-server/internal/world"

	"github.com/joho/godotenv"
)

// fileSource serves a single point cloud read from disk.
type fileSource struct {
	set *pointcloud.Set
}

func (f fileSource) Load(context.Context, int) (*pointcloud.Set, error) {
	return f.set, nil
}

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	gen := cfg.Generation

	in := flag.String("in", "", "point cloud JSON file ({\"points\": [...], \"clusters\": [...]})")
	settingsPath := flag.String("settings", "", "optional terrain settings JSON file")
	outDir := flag.String("out", ".", "output directory")
	width := flag.Float64("width", 1600, "viewport width in pixels")
	height := flag.Float64("height", 1000, "viewport height in pixels")
	mode := flag.String("mode", string(world.ModeTerrain), "terrain or landmass")
	dots := flag.Bool("dots", false, "draw settlement markers on the map")
	seed := flag.Int64("seed", gen.NoiseSeed, "landmass noise seed")
	noise := flag.String("noise", gen.NoiseKind, "landmass noise kind (simplex, perlin)")
	workers := flag.Int("workers", gen.Workers, "worker goroutines (0 = one per CPU)")
	flag.Parse()

	log := logger.New(os.Stderr, cfg.Logging).With("component", "worldgen")

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	set, err := readSet(*in)
	if err != nil {
		log.Error("Failed to read point cloud", "path", *in, "error", err)
		os.Exit(1)
	}

	req := world.GenerateRequest{DatasetID: 1, Width: *width, Height: *height, Mode: world.Mode(*mode)}
	if *settingsPath != "" {
		req.Settings = &terrain.Settings{}
		if err := readJSON(*settingsPath, req.Settings); err != nil {
			log.Error("Failed to read settings", "path", *settingsPath, "error", err)
			os.Exit(1)
		}
	}

	synthConfig := landmass.DefaultConfig(*seed)
	synthConfig.NoiseKind = *noise
	synthConfig.Workers = *workers
	synth, err := landmass.New(synthConfig)
	if err != nil {
		log.Error("Invalid landmass configuration", "error", err)
		os.Exit(1)
	}
	engine := terrain.NewEngine(gen.Padding, gen.SmoothingPasses, *workers)
	svc := world.NewService(fileSource{set}, engine, synth, terrain.NewCache(), gen.MaxViewport, log)

	stamp := time.Now().Unix()
	if err := generate(ctx, log, svc, req, *dots, *outDir, stamp); err != nil {
		log.Error("Generation failed", "error", err)
		os.Exit(1)
	}
}

func generate(ctx context.Context, log *slog.Logger, svc *world.Service, req world.GenerateRequest, dots bool, outDir string, stamp int64) error {
	w, err := svc.Generate(ctx, req)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return err
	}
	if err := write(log, outDir, fmt.Sprintf("world-%d.json", stamp), data); err != nil {
		return err
	}

	if req.Mode == world.ModeLandmass {
		return nil
	}

	img, err := svc.RenderMap(ctx, req, dots)
	if err != nil {
		return err
	}
	if err := write(log, outDir, fmt.Sprintf("terrain-map-%d.png", stamp), img); err != nil {
		return err
	}

	legend, err := svc.RenderLegend(req)
	if err != nil {
		return err
	}
	return write(log, outDir, fmt.Sprintf("terrain-legend-%d.png", stamp), legend)
}

func readSet(path string) (*pointcloud.Set, error) {
	var set pointcloud.Set
	if err := readJSON(path, &set); err != nil {
		return nil, err
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func write(log *slog.Logger, dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	log.Info("Wrote file", "path", path, "bytes", len(data))
	return nil
}
