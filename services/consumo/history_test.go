package consumo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"uteconsumo-backend/lib/scrapers/ute"
	"uteconsumo-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func testArchive(t *testing.T) Archive {
	cleanup := telemetry.SetupForTesting(t, "test:services/consumo")
	t.Cleanup(cleanup)

	archive, err := OpenArchive(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })
	return archive
}

func TestArchiveInsertAndQuery(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()

	base := time.Date(2024, time.May, 11, 10, 0, 0, 0, time.UTC)
	eff := 40.0
	dailyTen := 10.0

	err := archive.Insert(ctx, base, ute.Summary{
		PeakEnergyKwh:    120,
		OffPeakEnergyKwh: 80,
		TotalEnergyKwh:   200,
		Efficiency:       &eff,
		PeriodStart:      "01-05-2024",
		PeriodEnd:        "10-05-2024",
	}, Daily{Total: &dailyTen})
	require.NoError(t, err)

	err = archive.Insert(ctx, base.Add(time.Hour), ute.Summary{
		PeakEnergyKwh:    125,
		OffPeakEnergyKwh: 82,
		TotalEnergyKwh:   207,
		PeriodStart:      "01-05-2024",
		PeriodEnd:        "10-05-2024",
	}, Daily{})
	require.NoError(t, err)

	rows, err := archive.Since(ctx, base)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, 120.0, rows[0].PeakKwh)
	require.Equal(t, 200.0, rows[0].TotalKwh)
	require.Equal(t, 40.0, *rows[0].Efficiency)
	require.Equal(t, 10.0, *rows[0].DailyTotal)
	require.Nil(t, rows[0].DailyPeak)

	require.Equal(t, 207.0, rows[1].TotalKwh)
	require.Nil(t, rows[1].Efficiency)
	require.Nil(t, rows[1].DailyTotal)

	// ordered oldest first
	require.True(t, rows[0].Time.Before(rows[1].Time))
}

func TestArchiveSinceFiltersOld(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()

	old := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, time.May, 11, 0, 0, 0, 0, time.UTC)

	require.NoError(t, archive.Insert(ctx, old, ute.Summary{TotalEnergyKwh: 1}, Daily{}))
	require.NoError(t, archive.Insert(ctx, recent, ute.Summary{TotalEnergyKwh: 2}, Daily{}))

	rows, err := archive.Since(ctx, recent.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 2.0, rows[0].TotalKwh)
}
