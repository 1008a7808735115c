// Command server runs the matching engine behind the fixed HTTP
// surface, supervised by a tomb so the HTTP listener and the
// notification worker pool shut down together on SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"maelstrom/internal/api"
	"maelstrom/internal/engine"
	"maelstrom/internal/ledger"
	"maelstrom/internal/notify"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	l := ledger.New()
	e := engine.New(l)
	n := notify.New(4)
	srv := api.NewServer(l, e, n)

	t, ctx := tomb.WithContext(ctx)

	httpServer := &http.Server{Addr: *addr, Handler: srv.Handler()}

	t.Go(func() error {
		return n.Run(t)
	})

	t.Go(func() error {
		log.Info().Str("addr", *addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	t.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("server shutting down")
		return httpServer.Shutdown(context.Background())
	})

	if err := t.Wait(); err != nil {
		log.Error().Err(err).Msg("server exited with error")
	}
}
