package cli

import (
	"bufio"
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/roteiro"
	"github.com/aretw0/roteiro/internal/config"
	"github.com/aretw0/roteiro/internal/presentation/tui"
	"github.com/aretw0/roteiro/pkg/adapters/memory"
	"github.com/aretw0/roteiro/pkg/ports"
	"github.com/aretw0/roteiro/pkg/render"
)

// RunWatch runs the interactive loop in development mode: whenever the
// storage backend reports an out-of-band change the repository is
// rebuilt and the session resumes where it was.
func RunWatch(cfg config.Config, opts RunOptions) error {
	logger := createLogger(opts.Debug, cfg.LogLevel)
	if !opts.Plain {
		tui.PrintBanner(roteiro.Version)
	}

	// Default session for watch mode, scoped by storage path so two
	// projects don't collide.
	if opts.SessionID == "" {
		hash := md5.Sum([]byte(cfg.Storage.Path))
		opts.SessionID = fmt.Sprintf("watch-%x", hash[:4])
	}

	logger.Info("starting watcher", "path", cfg.Storage.Path, "session_id", opts.SessionID)
	printSystemMessage("Observando '%s' (sessão '%s').", cfg.Storage.Path, opts.SessionID)

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	// The session store outlives the per-iteration repository so the
	// operator's position survives reloads.
	var store ports.SessionStore = memory.NewSessionStore()
	if cfg.Redis.Addr != "" {
		holder := &App{Config: cfg, Logger: logger}
		store = holder.openSessionStore(cfg.Redis)
		defer holder.Close()
	}

	if opts.Fresh {
		_ = store.Delete(sigCtx, opts.SessionID)
		opts.Fresh = false
	}

	reader := bufio.NewScanner(NewInterruptibleReader(os.Stdin, sigCtx.Done()))

	for {
		again, err := runWatchIteration(sigCtx, cfg, opts, store, reader)
		if err != nil {
			return handleExecutionError(err)
		}
		if !again {
			return nil
		}
	}
}

// runWatchIteration builds a fresh App over the current storage state
// and runs the operator loop until the script finishes, the storage
// changes, or a signal arrives. It reports whether another iteration
// should run.
func runWatchIteration(parentCtx *SignalContext, cfg config.Config, opts RunOptions, store ports.SessionStore, reader *bufio.Scanner) (bool, error) {
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	logger := createLogger(opts.Debug, cfg.LogLevel)

	app, err := NewApp(ctx, cfg, logger, WithSessionStore(store))
	if err != nil {
		logger.Error("app initialization failed", "err", err)
		select {
		case <-parentCtx.Done():
			return false, nil
		case <-time.After(2 * time.Second):
			return true, nil
		}
	}
	defer app.Close()

	productID, err := resolveProduct(app, opts.ProductID)
	if err != nil {
		// Likely an empty or half-written bundle. Wait for the next change.
		printSystemMessage("%v", err)
		return waitForChange(parentCtx, ctx, app)
	}

	loaded, err := loadOrStart(ctx, app, opts.SessionID, productID)
	if err != nil {
		logger.Error("state rehydration failed", "err", err)
		return waitForChange(parentCtx, ctx, app)
	}
	if loaded {
		logger.Info("session rehydrated", "session_id", opts.SessionID)
		printSystemMessage("Retomando a sessão '%s'...", opts.SessionID)
	}

	// Reload trigger: cancel this iteration when the backend signals.
	watchable := app.Watchable()
	reload := make(chan struct{}, 1)
	if watchable != nil {
		watchCh, err := watchable.Watch(ctx)
		if err != nil {
			logger.Warn("storage watch unavailable", "err", err)
		} else {
			go func() {
				select {
				case <-ctx.Done():
				case _, ok := <-watchCh:
					if ok {
						printSystemMessage("Alteração detectada, recarregando...")
						select {
						case reload <- struct{}{}:
						default:
						}
						cancel()
					}
				}
			}()
		}
	}

	console := newConsole(opts.Plain)
	ph := render.Placeholders{
		OperatorName:      opts.Operator,
		CustomerFirstName: opts.Customer,
	}

	done := make(chan error, 1)
	go func() {
		done <- runLoop(ctx, app, console, reader, opts.SessionID, ph)
	}()

	select {
	case <-parentCtx.Done():
		cancel()
		<-done
		logger.Info("stopping watcher", "signal", parentCtx.Signal())
		fmt.Printf("\n")
		printSystemMessage("Sessão '%s' preservada.", opts.SessionID)
		return false, nil
	case <-reload:
		cancel()
		<-done
		return true, nil
	case err := <-done:
		if errors.Is(err, errQuit) || isInterrupted(err) {
			return false, nil
		}
		if err != nil {
			logger.Error("runtime error", "err", err)
			return waitForChange(parentCtx, ctx, app)
		}
		if watchable != nil {
			printSystemMessage("Aguardando alterações...")
			return waitForChange(parentCtx, ctx, app)
		}
		return false, nil
	}
}

// waitForChange blocks until the storage changes or a signal arrives.
func waitForChange(parentCtx *SignalContext, ctx context.Context, app *App) (bool, error) {
	watchable := app.Watchable()
	if watchable == nil {
		return false, nil
	}
	watchCh, err := watchable.Watch(ctx)
	if err != nil {
		return false, err
	}
	select {
	case <-parentCtx.Done():
		return false, nil
	case _, ok := <-watchCh:
		return ok, nil
	}
}
