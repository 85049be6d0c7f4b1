package service

import (
	"context"
	"time"

	"driver-portal/internal/domain/auth"
	"driver-portal/internal/domain/driver"
	"driver-portal/internal/domain/leaderboard"
	"driver-portal/internal/domain/session"
	"driver-portal/internal/general/apiclient"
	"driver-portal/internal/general/contracts"
	"driver-portal/internal/general/eventloop"
	"driver-portal/internal/general/logger"
	"driver-portal/internal/ports"
)

// Backend is the subset of the API client the portal drives.
type Backend interface {
	OnSessionExpired(fn func())
	Session(ctx context.Context) (*driver.Profile, error)
	EndSession(ctx context.Context, token string) error
	Login(ctx context.Context, phone, city string) error
	VerifyOtp(ctx context.Context, phone, otp string) (apiclient.Verified, error)
	RequestRegistrationOtp(ctx context.Context, body contracts.RegisterRequest) error
	VerifyRegistration(ctx context.Context, phone, otp string) (apiclient.Verified, error)
	TripCount(ctx context.Context, period driver.Period) (int, error)
	CheckPlate(ctx context.Context, plate string) (*driver.CarRecord, error)
	ChangeCar(ctx context.Context, car driver.CarRecord) (driver.CarRecord, error)
	CarBrands(ctx context.Context) ([]string, error)
	Leaderboard(ctx context.Context) (leaderboard.Board, error)
	Campaign(ctx context.Context) (contracts.Campaign, error)
}

// Options tunes a Portal.
type Options struct {
	Producer     string   // envelope producer of published events
	Cities       []string // offered on the city step
	StoreTimeout time.Duration
}

// Portal owns the event loop, the session store, the backend client and both
// controllers. Logout and session expiry are the only full reset paths.
type Portal struct {
	ctx      context.Context
	logger   *logger.Logger
	loop     *eventloop.Loop
	store    ports.SessionStore
	api      Backend
	events   ports.EventPublisher
	surface  ports.RenderSurface
	producer string
	cities   []string
	storeTTL time.Duration

	auth    *AuthFlow
	profile *Profile
}

// NewPortal wires a portal. ctx bounds every backend call; events may be nil.
// The loop must be running (or started right after) for actions to take effect.
func NewPortal(
	ctx context.Context,
	logger *logger.Logger,
	loop *eventloop.Loop,
	store ports.SessionStore,
	api Backend,
	events ports.EventPublisher,
	surface ports.RenderSurface,
	opts Options,
) *Portal {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	portal := &Portal{
		ctx:      ctx,
		logger:   logger,
		loop:     loop,
		store:    store,
		api:      api,
		events:   events,
		surface:  surface,
		producer: opts.Producer,
		cities:   opts.Cities,
		storeTTL: opts.StoreTimeout,
	}
	portal.auth = newAuthFlow(portal)
	portal.profile = newProfile(portal)

	// the client calls this from a worker; the reset lands on the loop before the failed completion
	api.OnSessionExpired(func() {
		loop.Post(portal.sessionExpired)
	})

	return portal
}

// ensure Portal implements the front-end boundary
var _ ports.PortalService = (*Portal)(nil)

// storeCtx bounds one session store operation.
func (portal *Portal) storeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(portal.ctx, portal.storeTTL)
}

// logCtx carries the signed-in driver id, when there is one.
func (portal *Portal) logCtx() context.Context {
	if portal.profile.driver != nil {
		return portal.logger.WithDriverID(portal.ctx, portal.profile.driver.ID)
	}
	return portal.ctx
}

// ----- Session lifecycle -----

// RestoreSession validates a stored token with the backend. A rejected session
// is cleared; an unreachable backend keeps it and offers a retry.
func (portal *Portal) RestoreSession() { portal.loop.Post(portal.restore) }

func (portal *Portal) restore() {
	if portal.auth.step == auth.StepAuthenticated || portal.auth.restoring {
		return
	}

	ctx, cancel := portal.storeCtx()
	stored, err := portal.store.Get(ctx)
	cancel()
	if err != nil {
		portal.logger.Error(portal.ctx, "session_read_failed", "Could not read stored session", err, nil)
	}
	if !stored.Authenticated() {
		portal.renderAuth()
		return
	}

	portal.auth.restoring = true
	portal.auth.err = ""
	portal.auth.canRetry = false
	portal.renderAuth()

	epoch := portal.auth.epoch
	eventloop.Go(portal.loop, func() (*driver.Profile, error) {
		return portal.api.Session(portal.ctx)
	}, func(profile *driver.Profile, err error) {
		if epoch != portal.auth.epoch {
			return
		}
		portal.auth.restoring = false

		switch {
		case err == nil && profile != nil:
			portal.logger.Info(portal.logger.WithDriverID(portal.ctx, profile.ID), "session_restored", "Stored session accepted by backend", nil)
			portal.signIn(*profile, stored, "")
			return
		case swallowed(err):
			return
		case err == nil, isApplication(err):
			portal.logger.Info(portal.ctx, "session_rejected", "Stored session rejected, clearing", nil)
			portal.clearStore()
		default:
			portal.logger.Error(portal.ctx, "session_check_failed", "Backend unreachable during session restore", err, nil)
			portal.auth.err = errorText(err, MsgUnreachable, MsgUnreachable)
			portal.auth.canRetry = true
		}
		portal.renderAuth()
	})
}

// signIn moves from the auth flow to the profile. event is published when set.
func (portal *Portal) signIn(profile driver.Profile, sess session.Session, event contracts.PortalEventType) {
	portal.auth.enterAuthenticated()
	portal.profile.Load(profile, sess)
	if event != "" {
		portal.publish(event, nil)
	}
}

// Logout clears the local session synchronously and ends it on the backend on a best-effort basis.
func (portal *Portal) Logout() { portal.loop.Post(portal.logout) }

func (portal *Portal) logout() {
	if portal.auth.step != auth.StepAuthenticated {
		return
	}
	token := portal.profile.sess.Token
	ctx := portal.logCtx()

	portal.publish(contracts.EventLoggedOut, nil)
	portal.clearStore()
	portal.reset()
	portal.logger.Info(ctx, "logged_out", "Driver logged out", nil)
	portal.renderAuth()

	eventloop.Go(portal.loop, func() (struct{}, error) {
		return struct{}{}, portal.api.EndSession(context.WithoutCancel(portal.ctx), token)
	}, func(_ struct{}, err error) {
		if err != nil {
			portal.logger.Debug(ctx, "logout_remote_failed", "Backend logout failed; local session already cleared", map[string]any{"error": err.Error()})
		}
	})
}

// sessionExpired runs on the loop after the client cleared the store on a 401.
func (portal *Portal) sessionExpired() {
	wasSignedIn := portal.auth.step == auth.StepAuthenticated
	if !wasSignedIn && !portal.auth.restoring {
		// a late 401 from the previous session must not disturb a fresh login
		portal.logger.Debug(portal.ctx, "session_expired_ignored", "No active session to reset", nil)
		return
	}
	if wasSignedIn {
		portal.publish(contracts.EventSessionExpired, nil)
	}
	portal.logger.Info(portal.logCtx(), "session_expired", "Session reset after backend rejected the token", nil)

	portal.reset()
	if wasSignedIn {
		portal.auth.err = MsgSessionExpired
	}
	portal.renderAuth()
}

// reset returns every controller to its initial state.
func (portal *Portal) reset() {
	portal.profile.Reset()
	portal.auth.Reset()
}

func (portal *Portal) clearStore() {
	ctx, cancel := portal.storeCtx()
	defer cancel()
	if err := portal.store.Clear(ctx); err != nil {
		portal.logger.Error(portal.ctx, "session_clear_failed", "Could not clear stored session", err, nil)
	}
}
