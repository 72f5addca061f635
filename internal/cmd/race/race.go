// Package race parses race command flags and starts the race runtime.
package race

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/capesail/vendeeglobe/internal/api"
	"github.com/capesail/vendeeglobe/internal/bots"
	"github.com/capesail/vendeeglobe/internal/bots/luabot"
	entrypoint "github.com/capesail/vendeeglobe/internal/platform/cmd"
	enginepkg "github.com/capesail/vendeeglobe/internal/race"
	"github.com/capesail/vendeeglobe/internal/scores/sqlite"
	"github.com/capesail/vendeeglobe/internal/ui"
)

// Config holds race command configuration.
type Config struct {
	Seed         int64         `env:"VENDEEGLOBE_SEED"`
	TimeLimit    time.Duration `env:"VENDEEGLOBE_TIME_LIMIT" envDefault:"8m"`
	Speedup      float64       `env:"VENDEEGLOBE_SPEEDUP" envDefault:"1"`
	Test         bool          `env:"VENDEEGLOBE_TEST"`
	BotsDir      string        `env:"VENDEEGLOBE_BOTS_DIR" envDefault:"bots"`
	StorePath    string        `env:"VENDEEGLOBE_STORE_PATH" envDefault:"scores.db"`
	APIAddr      string        `env:"VENDEEGLOBE_API_ADDR" envDefault:":8080"`
	JWTSecret    string        `env:"VENDEEGLOBE_JWT_SECRET"`
	Headless     bool          `env:"VENDEEGLOBE_HEADLESS"`
	HighContrast bool          `env:"VENDEEGLOBE_HIGH_CONTRAST"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "World seed; 0 picks one from the clock")
	fs.DurationVar(&cfg.TimeLimit, "time-limit", cfg.TimeLimit, "Real-time race duration")
	fs.Float64Var(&cfg.Speedup, "speedup", cfg.Speedup, "Game clock multiplier")
	fs.BoolVar(&cfg.Test, "test", cfg.Test, "Test race: surface bot errors, skip persistence")
	fs.StringVar(&cfg.BotsDir, "bots", cfg.BotsDir, "Directory of Lua bot scripts")
	fs.StringVar(&cfg.StorePath, "store", cfg.StorePath, "Scores database path; empty disables persistence")
	fs.StringVar(&cfg.APIAddr, "api-addr", cfg.APIAddr, "Spectator API listen address")
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Run without the map window")
	fs.BoolVar(&cfg.HighContrast, "high-contrast", cfg.HighContrast, "Black-and-white map for projectors")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts one race with its spectator surfaces.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRace, func(ctx context.Context) error {
		return run(ctx, cfg)
	})
}

func run(ctx context.Context, cfg Config) error {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	fleet, err := luabot.LoadDir(cfg.BotsDir)
	if err != nil {
		return err
	}
	if len(fleet) == 0 {
		log.Printf("no bot scripts in %s, sailing the reference fleet", cfg.BotsDir)
		fleet = referenceFleet()
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open scores store: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	engineCfg := enginepkg.Config{
		Seed:      seed,
		TimeLimit: cfg.TimeLimit,
		Speedup:   cfg.Speedup,
		Test:      cfg.Test,
	}
	if store != nil {
		engineCfg.Store = store
	}
	engine, err := enginepkg.New(fleet, engineCfg)
	if err != nil {
		return fmt.Errorf("prepare race: %w", err)
	}

	var reader api.ScoreReader
	if store != nil {
		reader = store
	}
	server, err := api.New(engine, reader, api.Config{
		Addr:      cfg.APIAddr,
		JWTSecret: cfg.JWTSecret,
	})
	if err != nil {
		return fmt.Errorf("prepare api: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := engine.Run(ctx)
		if cfg.Headless {
			// Nothing left to watch; shut the API down too.
			cancel()
		}
		return err
	})
	g.Go(func() error {
		return server.ListenAndServe(ctx)
	})

	if cfg.Headless {
		return g.Wait()
	}

	// The window must run on the main goroutine; closing it ends the run.
	uiErr := ui.Run(engine, engine.Mask(), ui.Config{HighContrast: cfg.HighContrast})
	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	return uiErr
}

// openStore opens the scores database when a path is configured. Test
// races open it too, so practice runs still chase the record times; the
// engine never writes results for them.
func openStore(cfg Config) (*sqlite.Store, error) {
	if cfg.StorePath == "" {
		return nil, nil
	}
	return sqlite.Open(cfg.StorePath)
}

// referenceFleet builds waypoint-following bots for the default course,
// so a bare invocation still races.
func referenceFleet() []bots.Bot {
	waypoints := enginepkg.DefaultCourse().Waypoints()
	return []bots.Bot{
		bots.NewWaypointBot("Intrepide", waypoints, 150),
		bots.NewWaypointBot("Albatros", waypoints, 400),
		bots.NewWaypointBot("Goeland", waypoints, 800),
	}
}
