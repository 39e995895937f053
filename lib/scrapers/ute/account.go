package ute

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/codes"
)

var spIdRegex = regexp.MustCompile(`spId=(\d+)`)

// resolveSupplyPoint opens the account page and pulls the internal supply
// point id out of the load-curve links in the supplies table. The id is
// what the chart endpoint actually keys on; it is not the user-facing
// account number. Returns "" when no link matches, which the caller must
// treat as a definitive failure rather than something to retry.
func (s *Scraper) resolveSupplyPoint(ctx context.Context, tab context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "resolveSupplyPoint")
	defer span.End()

	accountURL := fmt.Sprintf("%s/account?accountId=%s", selfServiceURL, s.creds.AccountID)

	err := run(tab, 60*time.Second, "navigate to account page",
		chromedp.Navigate(accountURL),
		waitSettled(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reach account page")
		return "", err
	}

	err = run(tab, 30*time.Second, "wait for supplies table",
		chromedp.WaitVisible("#tablaSuministros", chromedp.ByQuery),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "supplies table never appeared")
		return "", err
	}

	var content string
	err = run(tab, 30*time.Second, "read account page",
		chromedp.OuterHTML("html", &content, chromedp.ByQuery),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read account page")
		return "", err
	}

	id, err := extractSupplyPointId(content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse account page")
		return "", scraperErr(err, "parse account page")
	}
	return id, nil
}

// extractSupplyPointId scans the page for load-curve anchors carrying an
// spId query parameter and returns the first numeric match, or "".
func extractSupplyPointId(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	var id string
	doc.Find(`a[href*="cmvisualizarcurvadecarga"][href*="spId="]`).
		EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href := a.AttrOr("href", "")
			groups := spIdRegex.FindStringSubmatch(href)
			if len(groups) < 2 {
				return true
			}
			id = groups[1]
			return false
		})
	return id, nil
}
