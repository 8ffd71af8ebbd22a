// Package app wires configuration, session storage, the session manager, the
// authenticated request pipeline and the route guard into one client.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/spf13/afero"

	"portfolio-client/internal/apiclient"
	"portfolio-client/internal/authapi"
	"portfolio-client/internal/config"
	"portfolio-client/internal/guard"
	"portfolio-client/internal/keepalive"
	"portfolio-client/internal/policy/engine"
	policyrepo "portfolio-client/internal/policy/repository"
	"portfolio-client/internal/projects"
	"portfolio-client/internal/security"
	"portfolio-client/internal/session/repository"
	"portfolio-client/internal/session/service"
	"portfolio-client/internal/session/storage"
	"portfolio-client/internal/telemetry"
	telemetryotel "portfolio-client/internal/telemetry/otel"
	"portfolio-client/internal/telemetry/producer"
)

// ServiceName is the OTel service name reported by the client.
const ServiceName = "portfolio-client"

// App is a fully wired client. Build it with New and release it with Close.
type App struct {
	Config    *config.Config
	Navigator *ConsoleNavigator
	Storage   *storage.Storage
	Session   *service.Manager
	Auth      *authapi.Client
	API       *apiclient.Client
	Projects  *projects.Client
	Guard     *guard.Guard
	Policy    *engine.OPAEvaluator
	// Pinger is nil when KEEPALIVE_INTERVAL is 0.
	Pinger *keepalive.Pinger

	closers []func(context.Context) error
}

// Deps overrides pieces of the wiring; zero values use the configured defaults.
type Deps struct {
	// Out receives navigation output. Defaults to io.Discard.
	Out io.Writer
	// Repository replaces the backend selected by SESSION_BACKEND.
	Repository repository.Repository
	// PolicyFS is the filesystem ROUTE_POLICY_FILE is read from. Defaults to the OS filesystem.
	PolicyFS afero.Fs
	// ManagerOptions are appended to the manager's options.
	ManagerOptions []service.Option
}

// New builds the client and restores any stored session. A storage failure during
// restore is logged; the client starts signed out.
func New(ctx context.Context, cfg *config.Config, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	a := &App{Config: cfg}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	a.Navigator = NewConsoleNavigator(deps.Out)

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, ServiceName, cfg.OTLPInsecure)
	if err != nil {
		return nil, fmt.Errorf("app: otel: %w", err)
	}
	providers.SetGlobal()
	a.closers = append(a.closers, providers.Shutdown)

	emitters := telemetry.MultiEmitter{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	kafkaProducer, err := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.SessionEventsTopic)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("app: kafka: %w", err)
	}
	if kafkaProducer != nil {
		emitters = append(emitters, kafkaProducer)
		a.closers = append(a.closers, func(context.Context) error { return kafkaProducer.Close() })
	}

	repo := deps.Repository
	if repo == nil {
		var closeRepo func() error
		repo, closeRepo, err = OpenRepository(ctx, cfg)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("app: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return closeRepo() })
	}
	codec := security.NewCodec(nil)
	if cfg.TokenVerifyKey != "" {
		key, err := security.ParseVerificationKey(cfg.TokenVerifyKey)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("app: TOKEN_VERIFY_KEY: %w", err)
		}
		codec = security.NewCodec(key)
	}
	a.Storage = storage.New(repo, storage.WithDecoder(codec))

	a.Auth = authapi.NewClient(cfg.APIBase(), cfg.RequestTimeout())
	opts := append([]service.Option{service.WithEmitter(emitters), service.WithDecoder(codec)}, deps.ManagerOptions...)
	a.Session = service.NewManager(a.Auth, a.Storage, a.Navigator, opts...)
	a.closers = append(a.closers, func(context.Context) error { a.Session.Close(); return nil })

	rt := apiclient.NewTransport(nil, a.Storage, a.Session,
		apiclient.WithTracerProvider(providers.TracerProvider),
		apiclient.WithMeterProvider(providers.MeterProvider),
	)
	a.API = apiclient.New(cfg.APIBase(), rt, cfg.RequestTimeout())
	a.Projects = projects.NewClient(a.API)

	var policies policyrepo.Repository
	if cfg.RoutePolicyFile != "" {
		fs := deps.PolicyFS
		if fs == nil {
			fs = afero.NewOsFs()
		}
		policies = policyrepo.NewFileRepository(fs, cfg.RoutePolicyFile)
	}
	a.Policy = engine.NewOPAEvaluator(policies)
	if err := a.Policy.HealthCheck(ctx); err != nil {
		log.Printf("app: route policy engine unavailable, using built-in rule: %v", err)
	}
	a.Guard = guard.New(a.Session, a.Policy)

	if interval := cfg.Keepalive(); interval > 0 {
		a.Pinger = keepalive.NewPinger(cfg.APIURL, interval)
	}

	if err := a.Session.Init(ctx); err != nil {
		log.Printf("app: restore session: %v", err)
	}
	return a, nil
}

// Open navigates to path through the route guard, the way the router would on a
// page load, and returns the guard's decision.
func (a *App) Open(ctx context.Context, path string) guard.Decision {
	d := a.Guard.Evaluate(ctx, path)
	switch d.Action {
	case guard.Render:
		a.Navigator.Navigate(service.Navigation{To: d.Path})
	case guard.Redirect:
		a.Navigator.Navigate(d.Navigation())
	}
	return d
}

// Close stops the session timer, flushes telemetry and releases backend connections.
// Pending async events get telemetry.ShutdownDrainDuration to finish.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
