package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/slx/internal/server"
)

// Serve starts the library query API over the stored track database.
//
// The pipeline trigger endpoint is registered only when Spotify credentials
// are configured; the query endpoints work without them.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)

	repo, cleanup, err := r.openRepository()
	if err != nil {
		return err
	}
	defer cleanup()

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(r.logger), server.CORS())
	router.Handler(server.NewTrackHandler(repo, r.logger))

	if engine, _, err := r.buildEngine(); err != nil {
		r.logger.Warn("pipeline endpoints disabled", "error", err)
	} else {
		engine.WithStore(repo)
		router.Handler(server.NewRunHandler(engine, r.logger))
	}

	port := r.config.Server.Port
	if p := cmd.Int("port"); p > 0 {
		port = p
	}

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, port)
	r.writePlain("Serving library API at http://%s\n", addr)

	srv := server.NewServer(addr, router, r.logger)
	return srv.Start(ctx)
}
