package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/roteiro"
	"github.com/aretw0/roteiro/internal/config"
	"github.com/aretw0/roteiro/internal/presentation/tui"
	"github.com/aretw0/roteiro/pkg/domain"
	"github.com/aretw0/roteiro/pkg/render"
)

// RunSession drives a single interactive attendance on the terminal:
// the operator reads each step and picks buttons by number until the
// script ends.
func RunSession(cfg config.Config, opts RunOptions) error {
	logger := createLogger(opts.Debug, cfg.LogLevel)

	if !opts.Plain {
		tui.PrintBanner(roteiro.Version)
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	app, err := NewApp(sigCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	productID, err := resolveProduct(app, opts.ProductID)
	if err != nil {
		return err
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("local-%d", os.Getpid())
	}
	if opts.Fresh {
		_ = app.Sessions.End(sigCtx, sessionID)
	}

	loaded, err := loadOrStart(sigCtx, app, sessionID, productID)
	if err != nil {
		return fmt.Errorf("failed to init session: %w", err)
	}
	logSessionStatus(logger, sessionID, loaded, opts.Plain)

	console := newConsole(opts.Plain)
	ph := render.Placeholders{
		OperatorName:      opts.Operator,
		CustomerFirstName: opts.Customer,
	}
	reader := bufio.NewScanner(NewInterruptibleReader(os.Stdin, sigCtx.Done()))

	runErr := runLoop(sigCtx, app, console, reader, sessionID, ph)
	if errors.Is(runErr, errQuit) {
		runErr = nil
	}
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}
	if isInterrupted(runErr) {
		fmt.Printf("\n")
		printSystemMessage("Sessão '%s' preservada.", sessionID)
	}
	return handleExecutionError(runErr)
}

// errQuit marks an explicit operator quit, as opposed to reaching the
// end of the script.
var errQuit = errors.New("quit")

// runLoop renders the current step and applies one operator command per
// iteration. It returns errQuit on an explicit quit and nil on a clean
// finish.
func runLoop(ctx context.Context, app *App, console *tui.Console, reader *bufio.Scanner, sessionID string, ph render.Placeholders) error {
	lastStepID := ""
	stopPulse := func() {}
	defer func() { stopPulse() }()

	for {
		view, err := app.Sessions.View(ctx, sessionID, ph)
		if err != nil {
			var missing *domain.MissingStepError
			if errors.As(err, &missing) {
				printSystemMessage("O passo '%s' não existe mais; roteiro interrompido.", missing.StepID)
				return nil
			}
			return err
		}

		// The tabulation hint pulses once per step arrival, not on
		// re-renders after invalid input.
		arrived := view.Step != nil && view.Step.ID != lastStepID
		if view.Step != nil {
			lastStepID = view.Step.ID
		}

		stopPulse()
		fmt.Println(console.RenderView(view, arrived))

		if view.Terminal {
			printSystemMessage("Atendimento encerrado.")
			return app.Sessions.End(ctx, sessionID)
		}

		fmt.Print("> ")
		if arrived {
			stopPulse = console.PulseTabulations(view)
		}
		if !reader.Scan() {
			if err := reader.Err(); err != nil {
				return err
			}
			return nil // EOF
		}
		input := strings.TrimSpace(reader.Text())

		switch {
		case input == "":
			continue
		case input == "q" || input == "quit" || input == "sair":
			printSystemMessage("Sessão '%s' preservada.", sessionID)
			return errQuit
		case input == "b" || input == "voltar":
			_, moved, err := app.Sessions.Back(ctx, sessionID)
			if err != nil {
				return err
			}
			if !moved {
				printSystemMessage("Não há passo anterior.")
			}
		default:
			idx, convErr := strconv.Atoi(input)
			if convErr != nil || idx < 1 || idx > len(view.Buttons) {
				printSystemMessage("Opção inválida. Digite o número de um botão, 'b' para voltar ou 'q' para sair.")
				continue
			}
			if _, err := app.Sessions.Advance(ctx, sessionID, view.Buttons[idx-1].ID); err != nil {
				if errors.Is(err, domain.ErrButtonNotFound) {
					printSystemMessage("Opção inválida.")
					continue
				}
				return err
			}
		}
	}
}

// resolveProduct picks the product to run. Without an explicit ID the
// repository must hold exactly one product.
func resolveProduct(app *App, productID string) (string, error) {
	if productID != "" {
		if _, err := app.Repo.GetProduct(productID); err != nil {
			return "", err
		}
		return productID, nil
	}

	products := app.Repo.GetProducts()
	switch len(products) {
	case 0:
		return "", fmt.Errorf("no products available; import a script bundle first")
	case 1:
		return products[0].ID, nil
	default:
		ids := make([]string, len(products))
		for i, p := range products {
			ids[i] = p.ID
		}
		return "", fmt.Errorf("multiple products available (%s); pick one with --product", strings.Join(ids, ", "))
	}
}

// loadOrStart resumes a persisted session or starts a new one.
func loadOrStart(ctx context.Context, app *App, sessionID, productID string) (bool, error) {
	state, err := app.Sessions.Load(ctx, sessionID)
	if err == nil {
		if state.ProductID == productID {
			return true, nil
		}
		// Stale session from another product. Start over.
		if err := app.Sessions.End(ctx, sessionID); err != nil {
			return false, err
		}
	} else if !errors.Is(err, domain.ErrSessionNotFound) {
		return false, err
	}

	_, err = app.Sessions.Start(ctx, sessionID, productID)
	return false, err
}

func logSessionStatus(logger *slog.Logger, sessionID string, loaded, quiet bool) {
	if loaded {
		logger.Info("session resumed", "session_id", sessionID)
		if !quiet {
			printSystemMessage("Retomando a sessão '%s'...", sessionID)
		}
	} else {
		logger.Info("session created", "session_id", sessionID)
		if !quiet {
			printSystemMessage("Sessão '%s' ativa.", sessionID)
		}
	}
}

func newConsole(plain bool) *tui.Console {
	if plain || !tui.IsInteractive() {
		return tui.NewPlainConsole()
	}
	return tui.NewConsole()
}
