package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/breachsim/breachsim/core"
	"github.com/breachsim/breachsim/utils"
)

const (
	Version = "1.0.0"
	Logo    = `
 ____                     _     ____  _
| __ )_ __ ___  __ _  ___| |__ / ___|(_)_ __ ___
|  _ \ '__/ _ \/ _` + "`" + ` |/ __| '_ \\___ \| | '_ ` + "`" + ` _ \
| |_) | | |  __/ (_| | (__| | | |___) | | | | | | |
|____/|_|  \___|\__,_|\___|_| |_|____/|_|_| |_| |_|

Digital Security Simulation Game v%s
`
)

func main() {
	app := &cli.App{
		Name:     "breachsim",
		Version:  Version,
		Usage:    "Educational digital-security simulation server",
		Compiled: time.Now(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides the config file",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Session store backend (memory, redis), overrides the config file",
			},
			&cli.StringFlag{
				Name:  "redis-addr",
				Usage: "Redis URL for the redis session store",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Verbose output",
			},
			&cli.BoolFlag{
				Name:  "no-banner",
				Usage: "Hide the banner",
			},
			&cli.BoolFlag{
				Name:  "simulate",
				Usage: "Run the offline measure-effectiveness simulation instead of serving",
			},
			&cli.IntFlag{
				Name:  "attempts",
				Usage: "Attack attempts per kind and defense profile in simulation mode",
				Value: 200,
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "Random seed for simulation mode (0 uses the clock)",
			},
			&cli.BoolFlag{
				Name:  "validate-config",
				Usage: "Validate the configuration file and exit",
			},
			&cli.BoolFlag{
				Name:  "version",
				Usage: "Show version information",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("version") {
		fmt.Printf("breachsim version %s\n", Version)
		fmt.Printf("Go version: %s\n", runtime.Version())
		fmt.Printf("Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		return nil
	}

	if !c.Bool("no-banner") {
		fmt.Printf(Logo, Version)
		fmt.Println()
	}

	logger := utils.NewLogger(c.Bool("verbose"))
	defer logger.Close()

	config := utils.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := utils.LoadConfig(path)
		if err != nil {
			logger.Error("Failed to load config: %v", err)
			return err
		}
		config = loaded
	}
	if store := c.String("store"); store != "" {
		config.Session.Store = store
	}
	if redisURL := c.String("redis-addr"); redisURL != "" {
		config.Session.RedisURL = redisURL
	}

	if err := config.Validate(); err != nil {
		logger.Error("Configuration validation failed: %v", err)
		return err
	}
	if c.Bool("validate-config") {
		logger.Success("Configuration validation passed")
		return nil
	}

	if c.Bool("simulate") {
		return runSimulation(c, logger)
	}

	return runServer(c, logger, config)
}

func runServer(c *cli.Context, logger *utils.Logger, config utils.Config) error {
	var store core.SessionStore
	switch config.Session.Store {
	case "redis":
		redisStore, err := core.NewRedisStore(
			config.Session.RedisURL,
			time.Duration(config.Session.TTLMinutes)*time.Minute,
			logger,
		)
		if err != nil {
			logger.Error("Failed to initialize redis session store: %v", err)
			return err
		}
		store = redisStore
	default:
		store = core.NewMemoryStore()
	}
	defer store.Close()

	setupSignalHandling(logger, store)

	feed := core.NewEventFeed(logger)
	resolver := core.NewResolver()
	server := core.NewAPIServer(logger, config, store, resolver, feed)

	addr := c.String("addr")
	if addr == "" {
		addr = fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	}
	if err := server.Start(addr); err != nil {
		logger.Error("Server failed: %v", err)
		return err
	}
	return nil
}

func runSimulation(c *cli.Context, logger *utils.Logger) error {
	attempts := c.Int("attempts")
	if attempts <= 0 {
		return fmt.Errorf("attempts must be greater than 0")
	}
	seed := c.Int64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	profiles := core.DefenseProfiles()
	total := attempts * len(profiles) * len(core.AttackCatalog)
	logger.Info("Resolving %d simulated attacks (%d per kind and profile, seed %d)", total, attempts, seed)

	bar := progressbar.Default(int64(total), "simulating")
	rows, err := core.RunSimulation(attempts, seed, func() {
		bar.Add(1)
	})
	if err != nil {
		return err
	}
	bar.Finish()
	fmt.Println()

	currentProfile := ""
	for _, row := range rows {
		if row.Profile != currentProfile {
			currentProfile = row.Profile
			var score int
			for _, p := range profiles {
				if p.Name == currentProfile {
					score = core.VulnerabilityScore(p.User)
				}
			}
			logger.Info("=== Profile: %s (vulnerability score %d) ===", currentProfile, score)
		}
		logger.Info("  %-22s computed %3d%%  observed %5.1f%%  (%d/%d)",
			row.Attack.Name, row.Chance, row.ObservedRate(), row.Successes, row.Attempts)
	}

	logger.Success("Simulation complete")
	return nil
}

func setupSignalHandling(logger *utils.Logger, store core.SessionStore) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		sig := <-sigChan
		logger.Info("Received signal %s, shutting down", sig)
		store.Close()
		logger.Close()
		os.Exit(0)
	}()
}
