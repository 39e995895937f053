package ute

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/codes"
)

// Summary is one aggregated read of the current billing period. Energy
// figures are cumulative month-to-date kWh, already rounded to 2 decimals.
type Summary struct {
	PeakEnergyKwh    float64
	OffPeakEnergyKwh float64
	TotalEnergyKwh   float64
	// Efficiency is the off-peak share of consumption in percent. Nil when
	// there is no consumption to take a share of, rather than zero.
	Efficiency *float64
	// PeriodStart/PeriodEnd bound the billing period, dd-mm-yyyy.
	PeriodStart string
	PeriodEnd   string

	// SupplyPointId and Raw are kept for downstream diagnostics; the chart
	// endpoint's shape is not a stable contract so the untouched tree is
	// worth more than any further modeling.
	SupplyPointId string
	Raw           map[string]any
}

const dateLayout = "02-01-2006"

// periodRange computes the billing period: the 1st of the month through
// yesterday, anchored on yesterday in UTC. The provider's data lags a day,
// and anchoring on yesterday keeps the range from inverting on the 1st.
func periodRange(now time.Time) (string, string) {
	end := now.UTC().AddDate(0, 0, -1)
	start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start.Format(dateLayout), end.Format(dateLayout)
}

// fetchConsumption requests the chart-data endpoint for the current
// billing period and aggregates it. The endpoint answers raw JSON (not
// wrapped in HTML) but only inside the authenticated session, so it is
// fetched by navigating the tab and reading the body text.
func (s *Scraper) fetchConsumption(ctx context.Context, tab context.Context, spId string) (Summary, error) {
	ctx, span := tracer.Start(ctx, "fetchConsumption")
	defer span.End()

	start, end := periodRange(time.Now())

	// query keys are kept verbatim from the portal's own chart requests
	dataURL := fmt.Sprintf(
		"%s/cmgraficar?"+
			"graficas[0][name]=CONSUMO_ACTUAL&"+
			"graficas[0][parms][psId]=%s&"+
			"graficas[0][parms][fechaInicial]=%s&"+
			"graficas[0][parms][fechaFinal]=%s",
		selfServiceURL, spId, start, end,
	)

	var body string
	err := run(tab, 60*time.Second, "fetch chart data",
		chromedp.Navigate(dataURL),
		chromedp.Text("body", &body, chromedp.ByQuery),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch chart data")
		return Summary{}, err
	}

	var tree map[string]any
	err = json.Unmarshal([]byte(body), &tree)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chart endpoint returned invalid JSON")
		return Summary{}, scraperErr(err, "invalid JSON response")
	}

	return aggregate(tree, start, end, spId), nil
}

// aggregate sums the labeled datasets of the current-consumption chart
// into a Summary. The payload is an unversioned internal format, so every
// lookup is defensive: missing keys mean empty data, never a failure, and
// unrecognized dataset labels are ignored.
func aggregate(tree map[string]any, periodStart, periodEnd, spId string) Summary {
	var peak, offPeak, total float64

	consumo := childMap(tree, "CONSUMO_ACTUAL")
	tramoHorario := childMap(consumo, "consumoActualTramoHorario")
	data := childMap(tramoHorario, "data")
	datasets, _ := data["datasets"].([]any)

	for _, entry := range datasets {
		dataset, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		label, _ := dataset["label"].(string)
		sum := sumSamples(dataset["data"])

		switch label {
		case "Punta":
			peak = sum
		case "Fuera de Punta":
			offPeak = sum
		case "Total":
			total = sum
		}
	}

	// the endpoint's own Total series is frequently empty
	if total == 0 && peak+offPeak > 0 {
		total = peak + offPeak
	}

	var efficiency *float64
	if peak+offPeak > 0 {
		e := round2(offPeak * 100 / (peak + offPeak))
		efficiency = &e
	}

	return Summary{
		PeakEnergyKwh:    round2(peak),
		OffPeakEnergyKwh: round2(offPeak),
		TotalEnergyKwh:   round2(total),
		Efficiency:       efficiency,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		SupplyPointId:    spId,
		Raw:              tree,
	}
}

func childMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	child, _ := m[key].(map[string]any)
	return child
}

// sumSamples adds up the numeric samples of a dataset, skipping nulls
// (the chart pads missing days with null).
func sumSamples(values any) float64 {
	list, ok := values.([]any)
	if !ok {
		return 0
	}
	var sum float64
	for _, v := range list {
		n, ok := v.(float64)
		if !ok {
			continue
		}
		sum += n
	}
	return sum
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
