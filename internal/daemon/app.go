// Package daemon owns the long-lived runtime: the control API server,
// the scheduler event pump and the config watcher, all tied to one
// context.
package daemon

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jmcfet/promoUI-sub009/internal/ccom"
	"github.com/jmcfet/promoUI-sub009/internal/config"
)

const shutdownGrace = 10 * time.Second

// App runs the daemon's subsystems until its context is cancelled or one
// of them fails.
type App struct {
	logger  zerolog.Logger
	holder  *config.Holder
	handler http.Handler
	pump    *ccom.Pump

	reloadSignal os.Signal
}

// NewApp wires an App.
func NewApp(logger zerolog.Logger, holder *config.Holder, handler http.Handler, pump *ccom.Pump) *App {
	return &App{
		logger:       logger.With().Str("component", "daemon").Logger(),
		holder:       holder,
		handler:      handler,
		pump:         pump,
		reloadSignal: syscall.SIGHUP,
	}
}

// Run blocks until ctx is cancelled or a subsystem fails fatally.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              a.holder.Get().Listen,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		a.logger.Info().Str("addr", srv.Addr).Msg("control api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		err := a.pump.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		err := a.holder.Watch(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, a.reloadSignal)
		defer signal.Stop(hup)

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-hup:
				a.logger.Info().Msg("reload signal received")
				if err := a.holder.Reload(ctx); err != nil {
					a.logger.Warn().Err(err).Msg("config reload failed")
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
