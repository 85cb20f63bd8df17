// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize with Spotify using OAuth2",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check current authentication state",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// exportCommand pulls the liked-songs library into the minimal export file.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export your liked songs to JSON",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "page-limit",
				Usage: "Maximum number of pages to fetch (0 for all)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (overrides config)",
			},
		},
		Action: r.Export,
	}
}

// enrichCommand resolves full details for a previous export.
func enrichCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "enrich",
		Usage: "Enrich an export with artist, album and audio-feature details",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "features",
				Usage: "Audio features mode: none, user, or client",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (overrides config)",
			},
		},
		Action: r.Enrich,
	}
}

// compactCommand filters enriched records down to the compact projection.
func compactCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "compact",
		Usage: "Write the compact projection of enriched records",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (overrides config)",
			},
		},
		Action: r.Compact,
	}
}

// runCommand executes the full pipeline end to end.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the full pipeline: export, enrich, compact, store",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "features",
				Usage: "Audio features mode: none, user, or client",
			},
			&cli.IntFlag{
				Name:  "page-limit",
				Usage: "Maximum number of pages to fetch (0 for all)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (overrides config)",
			},
			&cli.BoolFlag{
				Name:    "interactive",
				Aliases: []string{"i"},
				Usage:   "Show live progress in a terminal UI",
			},
			&cli.BoolFlag{
				Name:  "no-store",
				Usage: "Skip writing enriched records to the database",
			},
		},
		Action: r.Run,
	}
}

// serveCommand starts the library query API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the library query API over HTTP",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}
