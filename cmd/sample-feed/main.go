package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/damdice/internal/samplefeed"
	"github.com/okian/damdice/pkg/logger"
)

// HTTP server timeout constants.
const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	defaults := samplefeed.DefaultConfig()
	var (
		addr     = flag.String("addr", ":9090", "Listen address")
		races    = flag.Int("races", defaults.Races, "Number of weekly races")
		seed     = flag.Int64("seed", defaults.Seed, "Random seed")
		first    = flag.String("first-race", defaults.FirstRace.Format("2006-01-02"), "Date of the first race (YYYY-MM-DD)")
		legacy   = flag.Bool("legacy", false, "Serve the legacy layout without the doubles column")
		badRows  = flag.Bool("bad-rows", false, "Append rows the pipeline must reject")
		examples = flag.Bool("examples", defaults.Examples, "Append the example paddlers")
		verbose  = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}
	log := logger.Named("sample-feed")

	firstRace, err := time.Parse("2006-01-02", *first)
	if err != nil {
		os.Stderr.WriteString("invalid -first-race: " + err.Error() + "\n")
		return
	}
	cfg := samplefeed.Config{
		Seed:      *seed,
		Races:     *races,
		FirstRace: firstRace.Add(samplefeed.RaceStart),
		Legacy:    *legacy,
		BadRows:   *badRows,
		Examples:  *examples,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/export", samplefeed.Handler(cfg, log))

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "serving sample feed",
			logger.String("addr", *addr),
			logger.String("url", "http://localhost"+*addr+"/export?format=csv"),
			logger.Int("races", cfg.Races),
			logger.Bool("legacy", cfg.Legacy),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "sample feed server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "sample feed shutdown failed", logger.Error(err))
	}
}
