package ute

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.opentelemetry.io/otel/codes"
)

// logoutMarker is the only positive authentication signal the portal
// gives us: the "log out" link rendered for a signed-in session.
const logoutMarker = "cerrar sesión"

// login drives the identity server's form. The form is submitted with an
// Enter keypress on the password field since the submit button's markup
// has churned before.
func (s *Scraper) login(ctx context.Context, tab context.Context) error {
	ctx, span := tracer.Start(ctx, "login")
	defer span.End()

	err := run(tab, 60*time.Second, "navigate to login page",
		chromedp.Navigate(loginURL),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reach login page")
		return err
	}

	err = run(tab, 30*time.Second, "wait for username field",
		chromedp.WaitVisible(`input[name="Username"]`, chromedp.ByQuery),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "username field never appeared")
		return err
	}

	err = run(tab, 30*time.Second, "fill credentials",
		chromedp.SendKeys(`input[name="Username"]`, s.creds.Username, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="Password"]`, s.creds.Password+kb.Enter, chromedp.ByQuery),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit credentials")
		return err
	}

	var content string
	err = run(tab, 60*time.Second, "wait for login result",
		waitSettled(),
		chromedp.OuterHTML("html", &content, chromedp.ByQuery),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login never settled")
		return err
	}

	if !strings.Contains(strings.ToLower(content), logoutMarker) {
		err := authErr("%q not found after login", logoutMarker)
		span.RecordError(err)
		span.SetStatus(codes.Error, "credentials rejected")
		return err
	}
	return nil
}
