package main

import (
	"fmt"
	"io"
	"os"

	"github.com/haukened/rr-dash/internal/dash/common/clock"
	"github.com/haukened/rr-dash/internal/dash/common/log"
	"github.com/haukened/rr-dash/internal/dash/config"
	"github.com/haukened/rr-dash/internal/dash/domain"
	"github.com/haukened/rr-dash/internal/dash/gateways/api"
	"github.com/haukened/rr-dash/internal/dash/gateways/changelog"
	"github.com/haukened/rr-dash/internal/dash/gateways/display"
	"github.com/haukened/rr-dash/internal/dash/gateways/live"
	"github.com/haukened/rr-dash/internal/dash/gateways/session"
	"github.com/haukened/rr-dash/internal/dash/repos/prefs"
	"github.com/haukened/rr-dash/internal/dash/repos/seen"
	"github.com/haukened/rr-dash/internal/dash/services/notify"
	"github.com/haukened/rr-dash/internal/dash/services/views"
)

// seenPerPage sizes the de-duplication index relative to the page size so
// that events scrolled off the list are still recognised for a while.
const seenPerPage = 4

// streams are the process's standard streams, replaceable in tests.
type streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func defaultStreams() streams {
	return streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// buildOptions are the per-invocation switches taken from global flags.
type buildOptions struct {
	Quiet   bool
	NoColor bool
	Output  string
	Clock   clock.Clock
}

// Application holds every component a command may use.
type Application struct {
	config   *config.AppConfig
	streams  streams
	output   string
	clock    clock.Clock
	logger   log.Logger
	origin   domain.Origin
	prefs    *prefs.Store
	session  *session.Session
	client   *api.Client
	notifier *notify.Deduplicator
	recorder *display.Recorder
	feed     *changelog.Feed
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig, ios streams, opts buildOptions) (*Application, error) {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	logger := log.GetLogger()
	origin := domain.ResolveOrigin(cfg.API.Location, cfg.API.Port)

	// Build repository layer
	store, err := prefs.Open(cfg.Prefs.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open prefs store: %w", err)
	}

	// Build gateway layer
	sess, err := session.New(origin, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := sess.Restore(); err != nil {
		logger.Warn(map[string]any{"error": err.Error()}, "Ignoring unreadable session cookies")
	}

	var (
		disp     notify.Display
		recorder *display.Recorder
	)
	if opts.Quiet {
		recorder = &display.Recorder{}
		disp = recorder
	} else {
		disp = display.NewTerminal(ios.Err, opts.NoColor)
	}
	notifier := notify.New(notify.Options{Display: disp, Clock: opts.Clock, Logger: logger})

	client, err := api.NewClient(api.ClientOptions{
		Origin:    origin,
		Notifier:  notifier,
		Navigator: sess,
		Jar:       sess,
		Logger:    logger,
		Timeout:   cfg.API.Timeout,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	var feed *changelog.Feed
	if cfg.Changelog.URL != "" {
		feed, err = changelog.New(changelog.Options{URL: cfg.Changelog.URL})
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to create changelog feed: %w", err)
		}
	}

	logger.Debug(map[string]any{
		"origin":  origin.String(),
		"timeout": cfg.API.Timeout.String(),
	}, "API client configured")

	return &Application{
		config:   cfg,
		streams:  ios,
		output:   opts.Output,
		clock:    opts.Clock,
		logger:   logger,
		origin:   origin,
		prefs:    store,
		session:  sess,
		client:   client,
		notifier: notifier,
		recorder: recorder,
		feed:     feed,
	}, nil
}

// Close reports end-of-run hints and releases the prefs database.
func (app *Application) Close() error {
	if app.session.Expired() {
		fmt.Fprintf(app.streams.Err, "Session expired, run '%s login' to sign in again\n", appName)
	}
	if app.recorder != nil && app.recorder.Len() > 0 {
		fmt.Fprintf(app.streams.Err, "%d warning(s) suppressed\n", app.recorder.Len())
	}
	return app.prefs.Close()
}

func (app *Application) clientsView() *views.ClientsView {
	return views.NewClientsView(app.client, app.logger)
}

func (app *Application) pauseView() *views.PauseView {
	return views.NewPauseView(app.client, app.clock)
}

func (app *Application) whitelistView() *views.WhitelistView {
	return views.NewWhitelistView(app.client, app.notifier, app.logger)
}

func (app *Application) queryLogView() (*views.QueryLogView, error) {
	idx, err := seen.New(app.config.Logs.PageSize*seenPerPage, seen.DefaultFPRate)
	if err != nil {
		return nil, fmt.Errorf("failed to create seen index: %w", err)
	}
	return views.NewQueryLogView(views.QueryLogOptions{
		API:      app.client,
		Seen:     idx,
		PageSize: app.config.Logs.PageSize,
		Logger:   app.logger,
	}), nil
}

func (app *Application) loginView() *views.LoginView {
	return views.NewLoginView(views.LoginOptions{
		API:      app.client,
		Notifier: app.notifier,
		Prefs:    app.prefs,
		Clock:    app.clock,
		Logger:   app.logger,
	})
}

func (app *Application) versionView() *views.VersionView {
	opts := views.VersionOptions{
		API:    app.client,
		Prefs:  app.prefs,
		Clock:  app.clock,
		TTL:    app.config.Changelog.TTL,
		Logger: app.logger,
	}
	if app.feed != nil {
		opts.Changelog = app.feed
	}
	return views.NewVersionView(opts)
}

// channel prepares a live channel sharing the session's cookies.
func (app *Application) channel(stream string, onState func(domain.StreamState)) *live.Channel {
	return live.NewChannel(app.origin, stream, live.Options{
		Jar:     app.session,
		Logger:  app.logger,
		OnState: onState,
	})
}
