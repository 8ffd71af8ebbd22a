package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"portfolio-client/internal/authapi"
	"portfolio-client/internal/security"
	"portfolio-client/internal/session/domain"
	"portfolio-client/internal/telemetry"
	telemetrydomain "portfolio-client/internal/telemetry/domain"
	userdomain "portfolio-client/internal/user/domain"
)

// ErrTokenDecode is returned by Login when the backend's token has no usable expiry.
// No session is created in that case.
var ErrTokenDecode = errors.New("cannot establish session from token")

// LoginAPI is the minimal backend auth client needed by the manager.
type LoginAPI interface {
	Login(ctx context.Context, email, password string) (*authapi.LoginResponse, error)
}

// Store is the minimal session storage needed by the manager.
type Store interface {
	Save(ctx context.Context, rec *domain.Record) error
	Load(ctx context.Context) (*domain.Record, error)
	Clear(ctx context.Context) error
}

// TokenDecoder extracts a token's expiry in epoch milliseconds.
type TokenDecoder interface {
	Expiry(token string) (int64, error)
}

type observer struct {
	id int
	fn func(domain.LogoutReason)
}

// Manager owns the session lifecycle. It is the only writer of the session
// store: login, logout, expiry and unauthorized signals are serialized by mu.
// Every transition bumps gen; an expiry timer only acts if gen still matches
// the value it was armed with.
type Manager struct {
	api     LoginAPI
	store   Store
	nav     Navigator
	codec   TokenDecoder
	clock   Clock
	emitter telemetry.EventEmitter

	mu    sync.Mutex
	state domain.State
	rec   *domain.Record
	timer Timer
	gen   uint64

	obsMu     sync.Mutex
	observers []observer
	nextObsID int
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the wall clock and timers.
func WithClock(c Clock) Option { return func(m *Manager) { m.clock = c } }

// WithDecoder replaces the token decoder.
func WithDecoder(d TokenDecoder) Option { return func(m *Manager) { m.codec = d } }

// WithEmitter sets the session event emitter. Events are sent asynchronously.
func WithEmitter(e telemetry.EventEmitter) Option { return func(m *Manager) { m.emitter = e } }

// NewManager returns a Manager in the Uninitialized state. Call Init before use.
func NewManager(api LoginAPI, store Store, nav Navigator, opts ...Option) *Manager {
	m := &Manager{
		api:   api,
		store: store,
		nav:   nav,
		codec: security.NewCodec(nil),
		clock: realClock{},
		state: domain.StateUninitialized,
	}
	for _, o := range opts {
		o(m)
	}
	if m.nav == nil {
		m.nav = NavigatorFunc(func(Navigation) {})
	}
	return m
}

// Init restores a stored session. A live record makes the manager Authenticated and
// arms the expiry timer for its remaining lifetime; otherwise it becomes Anonymous.
// A storage failure still leaves the manager initialized (Anonymous) and is returned.
// Calling Init again is a no-op.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	if m.state != domain.StateUninitialized {
		m.mu.Unlock()
		return nil
	}
	rec, err := m.store.Load(ctx)
	if err != nil || rec == nil {
		m.state = domain.StateAnonymous
		m.mu.Unlock()
		if err != nil {
			return fmt.Errorf("restore session: %w", err)
		}
		return nil
	}
	m.rec = rec
	m.state = domain.StateAuthenticated
	m.gen++
	m.armLocked(rec)
	m.mu.Unlock()

	m.emit(telemetrydomain.EventRestored, rec, "")
	return nil
}

// Initialized reports whether Init has completed.
func (m *Manager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != domain.StateUninitialized
}

// Login authenticates against the backend, persists the new session (replacing
// any previous one), arms the expiry timer and navigates to the landing view.
// On failure nothing changes.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.Record, error) {
	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.emit(telemetrydomain.EventLoginFailed, nil, loginFailureReason(err))
		return nil, err
	}
	exp, err := m.codec.Expiry(resp.AccessToken)
	if err != nil {
		m.emit(telemetrydomain.EventLoginFailed, nil, "token_decode")
		return nil, fmt.Errorf("%w: %w", ErrTokenDecode, err)
	}
	rec := &domain.Record{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		User:        resp.User,
		ExpiresAt:   exp,
	}

	m.mu.Lock()
	if err := m.store.Save(ctx, rec); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("save session: %w", err)
	}
	m.rec = rec
	m.state = domain.StateAuthenticated
	m.gen++
	m.armLocked(rec)
	m.mu.Unlock()

	m.emit(telemetrydomain.EventLogin, rec, "")
	m.nav.Navigate(Navigation{To: LandingPath(rec.User != nil && rec.User.IsAdmin)})
	return copyRecord(rec), nil
}

// Logout ends the session. It is idempotent: when already Anonymous it clears
// storage and navigates to the login view all the same.
func (m *Manager) Logout(ctx context.Context) error {
	return m.end(ctx, domain.LogoutExplicit, nil)
}

// HandleUnauthorized ends the session after the backend rejected a request with 401.
func (m *Manager) HandleUnauthorized(ctx context.Context) {
	if err := m.end(context.WithoutCancel(ctx), domain.LogoutUnauthorized, nil); err != nil {
		log.Printf("session: unauthorized logout: %v", err)
	}
}

// OnLogout registers fn to be called after every logout with its reason.
// The returned function unregisters it.
func (m *Manager) OnLogout(fn func(domain.LogoutReason)) (unsubscribe func()) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	m.nextObsID++
	id := m.nextObsID
	m.observers = append(m.observers, observer{id: id, fn: fn})
	return func() {
		m.obsMu.Lock()
		defer m.obsMu.Unlock()
		for i, o := range m.observers {
			if o.id == id {
				m.observers = append(m.observers[:i], m.observers[i+1:]...)
				return
			}
		}
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() domain.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (m *Manager) CurrentUser() *userdomain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil || m.rec.User == nil {
		return nil
	}
	u := *m.rec.User
	return &u
}

// Record returns a copy of the active session record, or nil.
func (m *Manager) Record() *domain.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyRecord(m.rec)
}

// Close disposes of the manager: the expiry timer is cancelled and observers are
// dropped. The stored session is left in place for the next process.
func (m *Manager) Close() {
	m.mu.Lock()
	m.stopTimerLocked()
	m.gen++
	m.mu.Unlock()

	m.obsMu.Lock()
	m.observers = nil
	m.obsMu.Unlock()
}

// end runs the shared Authenticated -> Anonymous transition. When armedGen is
// non-nil the call comes from an expiry timer and is dropped if stale.
func (m *Manager) end(ctx context.Context, reason domain.LogoutReason, armedGen *uint64) error {
	m.mu.Lock()
	if armedGen != nil && *armedGen != m.gen {
		m.mu.Unlock()
		return nil
	}
	prev := m.rec
	m.stopTimerLocked()
	err := m.store.Clear(ctx)
	m.rec = nil
	m.state = domain.StateAnonymous
	m.gen++
	m.mu.Unlock()

	if err != nil {
		err = fmt.Errorf("clear session: %w", err)
	}
	m.emit(eventForReason(reason), prev, string(reason))
	m.notify(reason)
	m.nav.Navigate(Navigation{To: LoginPath, Replace: true})
	return err
}

// armLocked schedules expiry of rec. Any earlier timer is cancelled first. Caller holds mu.
func (m *Manager) armLocked(rec *domain.Record) {
	m.stopTimerLocked()
	gen := m.gen
	d := time.Duration(rec.ExpiresAt-m.clock.Now().UnixMilli()) * time.Millisecond
	m.timer = m.clock.AfterFunc(d, func() {
		if err := m.end(context.Background(), domain.LogoutExpired, &gen); err != nil {
			log.Printf("session: expiry logout: %v", err)
		}
	})
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) notify(reason domain.LogoutReason) {
	m.obsMu.Lock()
	fns := make([]func(domain.LogoutReason), len(m.observers))
	for i, o := range m.observers {
		fns[i] = o.fn
	}
	m.obsMu.Unlock()
	for _, fn := range fns {
		fn(reason)
	}
}

func (m *Manager) emit(t telemetrydomain.EventType, rec *domain.Record, reason string) {
	if m.emitter == nil {
		return
	}
	ev := telemetrydomain.NewSessionEvent(t)
	ev.Reason = reason
	if rec != nil {
		ev.TokenFingerprint = security.Fingerprint(rec.AccessToken)
		if rec.User != nil {
			ev.UserID = strconv.FormatInt(rec.User.ID, 10)
		}
	}
	telemetry.EmitAsync(m.emitter, context.Background(), ev)
}

func eventForReason(r domain.LogoutReason) telemetrydomain.EventType {
	if r == domain.LogoutUnauthorized {
		return telemetrydomain.EventUnauthorized
	}
	return telemetrydomain.EventLogout
}

func loginFailureReason(err error) string {
	var se *authapi.StatusError
	switch {
	case errors.Is(err, authapi.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.As(err, &se):
		return "status_" + strconv.Itoa(se.StatusCode)
	default:
		return "transport"
	}
}

func copyRecord(rec *domain.Record) *domain.Record {
	if rec == nil {
		return nil
	}
	c := *rec
	if rec.User != nil {
		u := *rec.User
		c.User = &u
	}
	return &c
}
