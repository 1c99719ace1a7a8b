// Package app assembles the intake bot: configuration, storage backends,
// the questionnaire flow and its Telegram routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/intakebot/core/bootstrap"
	corecmd "github.com/m3rciful/intakebot/core/cmd"
	"github.com/m3rciful/intakebot/core/logger"
	coretelegram "github.com/m3rciful/intakebot/core/telegram"
	"github.com/m3rciful/intakebot/core/telegram/router"
	"github.com/m3rciful/intakebot/core/telegram/sender"
	"github.com/m3rciful/intakebot/core/telegram/state"
	"github.com/m3rciful/intakebot/internal/calendar"
	"github.com/m3rciful/intakebot/internal/catalog"
	"github.com/m3rciful/intakebot/internal/category"
	"github.com/m3rciful/intakebot/internal/chat"
	"github.com/m3rciful/intakebot/internal/questionnaire"
	"github.com/m3rciful/intakebot/internal/session"
	"github.com/m3rciful/intakebot/internal/sheets"

	tele "gopkg.in/telebot.v4"
)

// App holds the running bot's services.
type App struct {
	cfg      *Config
	infra    *bootstrap.Result
	bot      *tele.Bot
	sender   *sender.Sender
	sessions session.Store
	registry *coretelegram.Registry
	handlers *Handlers
}

var _ corecmd.TelegramApp = (*App)(nil)

// Bootstrap opens every backend the configuration asks for and wires the flow.
func Bootstrap(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	ctx := context.Background()
	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:      &cfg.Config,
		Database:    cfg.Database,
		UseDatabase: cfg.Session.Name() == session.BackendPostgres,
	})
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, infra: infra}
	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cat, err := catalog.Load(a.cfg.Questionnaire.CatalogPath)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	storage, err := sheets.Open(ctx, a.cfg.Sheets, cat)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.sessions, err = session.Open(ctx, a.cfg.Session, a.infra.DB)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.bot, err = coretelegram.NewBot(&a.cfg.Config)
	if err != nil {
		return err
	}
	a.sender = sender.New(sender.Options{})
	messenger := NewMessenger(a.bot, a.sender)

	a.handlers = Assemble(Services{
		Catalog:    cat,
		Messenger:  messenger,
		Sessions:   a.sessions,
		Storage:    storage,
		Operators:  a.cfg.Questionnaire.Operators(),
		HRUsername: a.cfg.Questionnaire.HRUsername,
		HRURL:      a.cfg.Questionnaire.HRURL,
	})
	a.registry = coretelegram.NewRegistry()
	if err := a.handlers.Register(a.registry); err != nil {
		return fmt.Errorf("app: register handlers: %w", err)
	}

	logger.Info(ctx, component, "wired",
		slog.Int("categories", len(cat.Categories())),
		slog.Int("operators", len(a.cfg.Questionnaire.Operators())),
		slog.String("session_backend", a.cfg.Session.Name()),
		slog.Bool("sheets", storage.Configured()),
	)
	return nil
}

// Storage saves finished questionnaires and reports on its backend.
type Storage interface {
	questionnaire.Storage
	SheetChecker
}

// Services are the collaborators the questionnaire needs.
type Services struct {
	Catalog    *catalog.Catalog
	Messenger  chat.Messenger
	Sessions   questionnaire.SessionUpdater
	Storage    Storage
	Operators  []int64
	HRUsername string
	HRURL      string
}

// Assemble builds the selector, engine, calendar and orchestrator around svc.
func Assemble(svc Services) *Handlers {
	selector := category.NewSelector(svc.Catalog, state.NewMemoryStore[category.Choice](), svc.Messenger)
	engine := questionnaire.NewEngine(svc.Catalog, state.NewMemoryStore[questionnaire.State]())
	completion := &questionnaire.CompletionHandler{
		Messenger:  svc.Messenger,
		Sessions:   svc.Sessions,
		Storage:    svc.Storage,
		Operators:  svc.Operators,
		HRUsername: svc.HRUsername,
		HRURL:      svc.HRURL,
	}
	flow := questionnaire.NewOrchestrator(engine, selector, calendar.New(svc.Messenger), completion, svc.Messenger)
	return NewHandlers(selector, flow, svc.Storage, svc.Messenger)
}

// TelegramRunOptions describes the routes and middleware for the core runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	if a.handlers == nil {
		return coretelegram.RunOptions{}, errors.New("app: not bootstrapped")
	}
	core := &a.cfg.Config
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		Operators:        a.cfg.Questionnaire.Operators(),
		OnOperatorReject: a.handlers.OperatorReject,
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.handlers, a.registry, router.TextOptions{
		UnknownText: a.handlers.UnknownText,
	})...)

	return coretelegram.RunOptions{
		Config:   core,
		Registry: a.registry,
		Bot:      a.bot,
		Sender:   a.sender,
		Middlewares: coretelegram.DefaultMiddlewares(core, coretelegram.ChainHooks{
			OnPanic:   a.handlers.Failure,
			OnLimited: a.handlers.SlowDown,
		}),
		Routes: routes,
	}, nil
}

// Close releases the sender, the session backend and the database.
func (a *App) Close() error {
	if a.sender != nil {
		a.sender.Close()
	}
	var errs []error
	if a.sessions != nil {
		errs = append(errs, a.sessions.Close())
		a.sessions = nil
	}
	if a.infra != nil {
		errs = append(errs, a.infra.Close())
		a.infra = nil
	}
	return errors.Join(errs...)
}
