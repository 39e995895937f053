// Package consumo is the consumer side of the UTE scraper: it polls on a
// schedule, derives daily consumption from the cumulative counters,
// persists tracker state, archives readings and mirrors everything into
// the automation hub.
package consumo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"uteconsumo-backend/lib/scrapers/ute"
	"uteconsumo-backend/lib/timezone"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("services/consumo")
var meter = otel.Meter("services/consumo")

type HubConfig struct {
	BaseUrl string `json:"base_url"`
	Token   string `json:"token"`
}

type Config struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	AccountId string `json:"account_id"`
	// Schedule is either an integer number of minutes or a standard cron
	// expression. Defaults to 60 minutes.
	Schedule  string    `json:"schedule"`
	StateFile string    `json:"state_file"`
	HistoryDb string    `json:"history_db"`
	Hub       HubConfig `json:"hub"`
}

const defaultInterval = 60 * time.Minute

type Service struct {
	scraper  *ute.Scraper
	store    StateStore
	archive  Archive
	push     PushClient
	schedule string

	state State

	scrapeCounter metric.Int64Counter
	errorCounter  metric.Int64Counter
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Username == "" || cfg.Password == "" || cfg.AccountId == "" {
		return nil, fmt.Errorf("username, password and account_id are required")
	}

	stateFile := cfg.StateFile
	if stateFile == "" {
		stateFile = "ute_state.json"
	}
	historyDb := cfg.HistoryDb
	if historyDb == "" {
		historyDb = "ute_history.db"
	}

	store := NewStateStore(stateFile)
	state, err := store.Load()
	if err != nil {
		return nil, err
	}

	archive, err := OpenArchive(historyDb)
	if err != nil {
		return nil, err
	}

	scrapeCounter, err := meter.Int64Counter(
		"consumo_scrape_total",
		metric.WithDescription("The total amount of successful scrape cycles."),
	)
	if err != nil {
		archive.Close()
		return nil, err
	}
	errorCounter, err := meter.Int64Counter(
		"consumo_scrape_errors_total",
		metric.WithDescription("The total amount of failed scrape cycles."),
	)
	if err != nil {
		archive.Close()
		return nil, err
	}

	return &Service{
		scraper: ute.NewScraper(ute.Credentials{
			Username:  cfg.Username,
			Password:  cfg.Password,
			AccountID: cfg.AccountId,
		}),
		store:         store,
		archive:       archive,
		push:          NewPushClient(cfg.Hub.BaseUrl, cfg.Hub.Token),
		schedule:      cfg.Schedule,
		state:         state,
		scrapeCounter: scrapeCounter,
		errorCounter:  errorCounter,
	}, nil
}

// Close releases the browser and the history database. Idempotent.
func (s *Service) Close() {
	s.scraper.Close()
	s.archive.Close()
}

// State returns the most recent derived tracker state, for read-only
// consumers.
func (s *Service) State() State {
	return s.state
}

// RunCycle performs one scrape: fetch, derive daily figures, persist
// state, archive and push. State is durable before anything is reported.
func (s *Service) RunCycle(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RunCycle")
	defer span.End()

	data, err := s.scraper.GetConsumptionData(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scrape failed")
		return fmt.Errorf("%s: %w", failureCause(err), err)
	}

	daily, next := DeriveDaily(timezone.Now(), data, s.state)
	err = s.store.Save(next)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist tracker state")
		return err
	}
	s.state = next

	err = s.archive.Insert(ctx, timezone.Now(), data, daily)
	if err != nil {
		// the archive is best-effort; a failed insert must not lose the
		// cycle's sensor updates
		slog.Warn("failed to archive reading", "err", err)
	}

	var pushErrs []error
	for _, update := range sensorUpdates(data, daily) {
		err := s.push.UpdateSensor(ctx, update)
		if err != nil {
			pushErrs = append(pushErrs, err)
		}
	}
	if len(pushErrs) > 0 {
		err := errors.Join(pushErrs...)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to push sensors")
		return err
	}

	slog.Info(
		"scrape ok",
		"peak_kwh", data.PeakEnergyKwh,
		"off_peak_kwh", data.OffPeakEnergyKwh,
		"total_kwh", data.TotalEnergyKwh,
		"daily_total_kwh", deref(daily.Total),
	)
	return nil
}

// Run polls until the context is done. A failed cycle is logged and
// counted, never fatal; the next cycle gets a fresh chance with a lazily
// recreated session if the browser died.
func (s *Service) Run(ctx context.Context) {
	defer s.Close()

	for {
		err := s.RunCycle(ctx)
		if err != nil {
			s.errorCounter.Add(ctx, 1)
			slog.Error("update failed", "cause", err.Error())
		} else {
			s.scrapeCounter.Add(ctx, 1)
		}

		next := nextRun(s.schedule, timezone.Now())
		slog.Info("sleeping until next cycle", "at", next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// nextRun computes the next cycle time from a schedule setting that is
// either integer minutes or a cron expression.
func nextRun(setting string, lastRun time.Time) time.Time {
	if v, err := strconv.Atoi(setting); err == nil && v > 0 {
		return lastRun.Add(time.Duration(v) * time.Minute)
	}
	if sched, err := cron.ParseStandard(setting); err == nil {
		return sched.Next(lastRun)
	}
	return lastRun.Add(defaultInterval)
}

// failureCause maps the scraper taxonomy onto the human-readable cause
// strings reported with the "update failed" signal.
func failureCause(err error) string {
	switch {
	case errors.Is(err, ute.ErrAuth):
		return "Authentication failed"
	case errors.Is(err, ute.ErrConnection):
		return "Connection failed"
	case errors.Is(err, ute.ErrScraper):
		return "Failed to fetch data"
	default:
		return "Unexpected error"
	}
}

func deref(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
