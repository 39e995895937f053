package ute

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// The three failure kinds callers are expected to branch on. Everything
// the scraper returns wraps exactly one of these, so `errors.Is` is the
// whole matching story:
//
//   - ErrAuth: credentials rejected by the portal. Terminal, never retried.
//   - ErrConnection: timeout or unreachable portal. Retried by the login loop.
//   - ErrScraper: anything else the portal did that we didn't expect
//     (missing DOM elements, unparsable JSON, unresolved supply point id).
var (
	ErrAuth       = errors.New("ute: authentication rejected")
	ErrConnection = errors.New("ute: connection failed")
	ErrScraper    = errors.New("ute: scrape failed")
)

func authErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAuth, fmt.Sprintf(format, args...))
}

func connectionErr(cause error, format string, args ...any) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrConnection, fmt.Sprintf(format, args...))
	}
	return fmt.Errorf("%w: %s: %w", ErrConnection, fmt.Sprintf(format, args...), cause)
}

func scraperErr(cause error, format string, args ...any) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrScraper, fmt.Sprintf(format, args...))
	}
	return fmt.Errorf("%w: %s: %w", ErrScraper, fmt.Sprintf(format, args...), cause)
}

// classify turns a raw navigation/wait failure into the taxonomy above.
// Deadline and cancellation failures count as connectivity problems so the
// retry loop can act on them; anything already classified passes through.
func classify(err error, stage string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAuth) || errors.Is(err, ErrConnection) || errors.Is(err, ErrScraper) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return connectionErr(err, "timeout during %s", stage)
	}
	if errors.Is(err, context.Canceled) {
		return connectionErr(err, "canceled during %s", stage)
	}
	return scraperErr(err, "%s", stage)
}
