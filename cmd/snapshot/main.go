// Command snapshot runs a single fusion cycle and prints the resulting
// snapshot as JSON. Feed endpoints and synthetic settings come from the same
// environment variables as the service.
//
// Usage:
//
//	go run ./cmd/snapshot -psi 0.8 -pretty
//	go run ./cmd/snapshot -offline -seismic-file ./catalog.txt
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/resonance-continuum/internal/adapter/feeds"
	"github.com/couchcryptid/resonance-continuum/internal/cache"
	"github.com/couchcryptid/resonance-continuum/internal/config"
	"github.com/couchcryptid/resonance-continuum/internal/domain"
	"github.com/couchcryptid/resonance-continuum/internal/observability"
	"github.com/couchcryptid/resonance-continuum/internal/pipeline"
)

// offlineSpaceWeather reports the fallback readings without touching the network.
type offlineSpaceWeather struct{}

func (offlineSpaceWeather) Geomag(context.Context) domain.GeomagReading {
	return domain.FallbackGeomag()
}

func (offlineSpaceWeather) SolarWind(context.Context) domain.SolarWindReading {
	return domain.FallbackSolarWind()
}

// offlineSeismic always fails so the cycle substitutes a synthetic table.
type offlineSeismic struct{}

func (offlineSeismic) Seismic(context.Context) (domain.SeismicTable, error) {
	return domain.SeismicTable{}, &domain.NormalizeError{Feed: domain.FeedSeismic, Kind: domain.KindEmpty, Message: "offline"}
}

// fileSeismic reads an FDSN text export from disk.
type fileSeismic struct {
	path string
}

func (f fileSeismic) Seismic(context.Context) (domain.SeismicTable, error) {
	body, err := os.ReadFile(f.path)
	if err != nil {
		return domain.SeismicTable{}, fmt.Errorf("read seismic file: %w", err)
	}
	return domain.NormalizeSeismic(body)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	psi := flag.Float64("psi", -1, "coupling parameter in [0,1] (default PSI_DEFAULT)")
	pretty := flag.Bool("pretty", false, "indent the JSON output")
	offline := flag.Bool("offline", false, "skip network feeds and use fallback readings")
	seismicFile := flag.String("seismic-file", "", "read the seismic catalog from a local FDSN text file")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline for the cycle")
	verbose := flag.Bool("v", false, "log feed activity to stderr")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *psi < 0 {
		*psi = cfg.PsiDefault
	}
	if err := domain.ValidatePsi(*psi); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewRealClock()

	var src pipeline.Sources
	if *offline {
		src = pipeline.Sources{SpaceWeather: offlineSpaceWeather{}, Seismic: offlineSeismic{}}
	} else {
		client := feeds.NewClient(cfg.FeedTimeout, cfg.FeedRetries, logger, metrics)
		src = pipeline.Sources{
			SpaceWeather: feeds.NewNOAA(client, cfg.GeomagURL, cfg.SolarWindURL),
			Seismic:      feeds.NewINGV(client, cfg.INGVURL, clock),
		}
		if cfg.CMEEnabled {
			src.CME = feeds.NewDONKI(client, cfg.DONKIURL, cfg.NASAAPIKey, clock)
		}
	}
	if *seismicFile != "" {
		src.Seismic = fileSeismic{path: *seismicFile}
	}

	synth, err := domain.NewSynthesizer(cfg.SynthProfile, cfg.SynthSeed)
	if err != nil {
		return err
	}
	cycle := pipeline.NewCycle(src, cache.New(clock, metrics), 0, synth, domain.NewEngine(cfg.SynthSeed), clock, logger, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	snap, err := cycle.Run(ctx, *psi)
	if err != nil {
		return fmt.Errorf("run cycle: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if degraded := snap.DegradedFeeds(); len(degraded) > 0 {
		fmt.Fprintf(os.Stderr, "degraded feeds: %v\n", degraded)
	}
	return nil
}
