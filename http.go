package identity

import (
	"time"

	"github.com/goliatone/go-router"
)

// RouteSessionAdapter bridges the session controller to the HTTP edge: it
// moves signed session tokens in and out of the session cookie and applies
// the verification gate to inbound requests.
type RouteSessionAdapter struct {
	cfg                    Config
	controller             *SessionController
	cookieDuration         time.Duration
	extendedCookieDuration time.Duration
	Logger                 Logger
}

// NewRouteSessionAdapter builds the adapter. Cookie lifetimes mirror the
// session token lifetimes so a cookie never outlives its token.
func NewRouteSessionAdapter(controller *SessionController, cfg Config) (*RouteSessionAdapter, error) {
	cookieDuration := DefaultSessionDuration
	if cfg.GetSessionDuration() > 0 {
		cookieDuration = time.Duration(cfg.GetSessionDuration()) * time.Hour
	}

	extendedCookieDuration := DefaultExtendedSessionDuration
	if cfg.GetExtendedSessionDuration() > 0 {
		extendedCookieDuration = time.Duration(cfg.GetExtendedSessionDuration()) * time.Hour
	}

	return &RouteSessionAdapter{
		cfg:                    cfg,
		controller:             controller,
		cookieDuration:         cookieDuration,
		extendedCookieDuration: extendedCookieDuration,
		Logger:                 defLogger{},
	}, nil
}

func (a RouteSessionAdapter) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

func (a RouteSessionAdapter) GetExtendedCookieDuration() time.Duration {
	return a.extendedCookieDuration
}

// Login runs the credential check and, on success, installs the session
// cookie. The outcome is returned either way so the route can flash its
// message.
func (a *RouteSessionAdapter) Login(ctx router.Context, payload LoginPayload) Outcome {
	out := a.controller.Login(ctx.Context(), payload.Email, payload.Password, payload.Remember)
	if !out.OK {
		return out
	}

	duration := a.cookieDuration
	if payload.Remember {
		duration = a.extendedCookieDuration
	}

	a.setCookieToken(ctx, out.SessionToken, duration)
	return out
}

// Register creates the account and, when auto-login succeeded, installs the
// session cookie for the fresh (still unverified) session.
func (a *RouteSessionAdapter) Register(ctx router.Context, payload RegistrationPayload) Outcome {
	out := a.controller.Register(ctx.Context(), payload.FirstName, payload.LastName, payload.Email, payload.Password)
	if out.OK && out.SessionToken != "" {
		a.setCookieToken(ctx, out.SessionToken, a.cookieDuration)
	}
	return out
}

// Logout clears the session cookie and records the sign-out.
func (a *RouteSessionAdapter) Logout(ctx router.Context) Outcome {
	session, _ := a.SessionFromRequest(ctx)
	a.cookieDel(ctx, a.cfg.GetContextKey())
	return a.controller.Logout(ctx.Context(), session)
}

// SessionFromRequest rehydrates the session from the request cookie.
func (a *RouteSessionAdapter) SessionFromRequest(ctx router.Context) (Session, error) {
	raw := ctx.Cookies(a.cfg.GetContextKey())
	if raw == "" {
		return nil, ErrUnableToDecodeSession
	}

	return a.controller.SessionFromToken(raw)
}

// GateRedirect returns the redirect target for an unverified session trying
// to reach resource, or "" if access is allowed.
func (a *RouteSessionAdapter) GateRedirect(user *User, resource string) string {
	if a.controller.Gate().IsAccessAllowed(user, resource) {
		return ""
	}
	return VerificationRedirect
}

func (a *RouteSessionAdapter) setCookieToken(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetContextKey(),
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteSessionAdapter) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}
