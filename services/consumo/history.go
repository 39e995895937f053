package consumo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"uteconsumo-backend/lib/scrapers/ute"
	"uteconsumo-backend/services/consumo/db"

	"go.opentelemetry.io/otel/codes"
)

// Reading is one archived scrape result.
type Reading struct {
	Time         time.Time
	PeriodStart  string
	PeriodEnd    string
	PeakKwh      float64
	OffPeakKwh   float64
	TotalKwh     float64
	Efficiency   *float64
	DailyPeak    *float64
	DailyOffPeak *float64
	DailyTotal   *float64
}

// Archive keeps every successful reading in a local sqlite database so
// consumption can be charted beyond what the provider shows.
type Archive struct {
	db *sql.DB
}

func OpenArchive(path string) (Archive, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return Archive{}, fmt.Errorf("open history db: %w", err)
	}
	_, err = database.Exec(db.Schema)
	if err != nil {
		database.Close()
		return Archive{}, fmt.Errorf("apply history schema: %w", err)
	}
	return Archive{db: database}, nil
}

func (a Archive) Close() error {
	return a.db.Close()
}

func (a Archive) Insert(ctx context.Context, at time.Time, data ute.Summary, daily Daily) error {
	ctx, span := tracer.Start(ctx, "archive:Insert")
	defer span.End()

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO readings (
			time, period_start, period_end,
			peak_kwh, off_peak_kwh, total_kwh, efficiency,
			daily_peak_kwh, daily_off_peak_kwh, daily_total_kwh
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		at.Unix(), data.PeriodStart, data.PeriodEnd,
		data.PeakEnergyKwh, data.OffPeakEnergyKwh, data.TotalEnergyKwh,
		nullable(data.Efficiency),
		nullable(daily.Peak), nullable(daily.OffPeak), nullable(daily.Total),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert reading")
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// Since returns archived readings at or after the given instant, oldest
// first.
func (a Archive) Since(ctx context.Context, since time.Time) ([]Reading, error) {
	ctx, span := tracer.Start(ctx, "archive:Since")
	defer span.End()

	rows, err := a.db.QueryContext(ctx, `
		SELECT time, period_start, period_end,
			peak_kwh, off_peak_kwh, total_kwh, efficiency,
			daily_peak_kwh, daily_off_peak_kwh, daily_total_kwh
		FROM readings
		WHERE time >= ?
		ORDER BY time ASC`,
		since.Unix(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query readings")
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var out []Reading
	for rows.Next() {
		var r Reading
		var unix int64
		var efficiency, dailyPeak, dailyOffPeak, dailyTotal sql.NullFloat64
		err := rows.Scan(
			&unix, &r.PeriodStart, &r.PeriodEnd,
			&r.PeakKwh, &r.OffPeakKwh, &r.TotalKwh, &efficiency,
			&dailyPeak, &dailyOffPeak, &dailyTotal,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to scan reading")
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		r.Time = time.Unix(unix, 0)
		r.Efficiency = fromNull(efficiency)
		r.DailyPeak = fromNull(dailyPeak)
		r.DailyOffPeak = fromNull(dailyOffPeak)
		r.DailyTotal = fromNull(dailyTotal)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
