// Package ute scrapes cumulative electricity consumption for a single UTE
// account out of the provider's self-service portal. There is no public
// API: the portal is server-rendered HTML plus an internal JSON chart
// endpoint that only answers inside an authenticated browser session, so
// the whole thing is driven through headless Chrome.
package ute

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/ute")

const (
	loginURL       = "https://identityserver.ute.com.uy/Account/Login"
	selfServiceURL = "https://autoservicio.ute.com.uy/SelfService/SSvcController"
)

const (
	loginAttempts = 3
	retryBackoff  = 30 * time.Second
)

type Credentials struct {
	Username  string
	Password  string
	AccountID string
}

// Scraper owns one headless browser serving one UTE account. Operations
// are sequential; callers must not run two fetches concurrently against
// the same Scraper.
type Scraper struct {
	creds Credentials

	mu            sync.Mutex
	browser       context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc

	// seams for tests: the retry loop is exercised without a browser or
	// wall-clock waits
	loginFn func(ctx context.Context, tab context.Context) error
	sleepFn func(ctx context.Context, d time.Duration) error
}

func NewScraper(creds Credentials) *Scraper {
	s := &Scraper{creds: creds}
	s.loginFn = s.login
	s.sleepFn = sleepCtx
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// loginWithRetry drives the login up to loginAttempts times. Only
// connectivity failures are retried, with a fixed pause in between; a
// credential rejection surfaces immediately.
func (s *Scraper) loginWithRetry(ctx context.Context, tab context.Context) error {
	var last error
	for attempt := 1; attempt <= loginAttempts; attempt++ {
		err := s.loginFn(ctx, tab)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConnection) {
			return err
		}
		last = err
		if attempt == loginAttempts {
			break
		}
		if serr := s.sleepFn(ctx, retryBackoff); serr != nil {
			return connectionErr(serr, "waiting to retry login")
		}
	}
	return last
}

// GetConsumptionData logs in, resolves the supply point id for the account
// and aggregates the current billing period's consumption. The id is
// re-resolved on every call since the portal may rotate it.
func (s *Scraper) GetConsumptionData(ctx context.Context) (Summary, error) {
	ctx, span := tracer.Start(ctx, "GetConsumptionData")
	defer span.End()
	span.SetAttributes(attribute.String("account_id", s.creds.AccountID))

	browser, err := s.ensureBrowser(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to acquire browser")
		return Summary{}, err
	}

	tab, closeTab, err := s.newTab(ctx, browser)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open browsing context")
		return Summary{}, err
	}
	defer closeTab()

	err = s.loginWithRetry(ctx, tab)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return Summary{}, err
	}

	spId, err := s.resolveSupplyPoint(ctx, tab)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve supply point id")
		return Summary{}, err
	}
	if spId == "" {
		err := scraperErr(nil, "could not extract spId from account")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Summary{}, err
	}
	span.SetAttributes(attribute.String("sp_id", spId))

	summary, err := s.fetchConsumption(ctx, tab, spId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch consumption")
		return Summary{}, err
	}
	return summary, nil
}

// ValidateCredentials attempts a login and reports whether the portal
// accepted the credentials. Connectivity problems are still errors, a
// rejection is a clean false.
func (s *Scraper) ValidateCredentials(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "ValidateCredentials")
	defer span.End()

	browser, err := s.ensureBrowser(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to acquire browser")
		return false, err
	}

	tab, closeTab, err := s.newTab(ctx, browser)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open browsing context")
		return false, err
	}
	defer closeTab()

	err = s.loginWithRetry(ctx, tab)
	if errors.Is(err, ErrAuth) {
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return false, err
	}
	return true, nil
}
