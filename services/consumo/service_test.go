package consumo

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"uteconsumo-backend/lib/scrapers/ute"

	"github.com/stretchr/testify/require"
)

func TestNextRun(t *testing.T) {
	last := time.Date(2024, time.May, 11, 10, 30, 0, 0, time.UTC)

	cases := []struct {
		setting string
		expect  time.Time
	}{
		{
			setting: "15",
			expect:  last.Add(15 * time.Minute),
		},
		{
			setting: "@every 2h",
			expect:  last.Add(2 * time.Hour),
		},
		{
			// standard cron: top of every hour
			setting: "0 * * * *",
			expect:  time.Date(2024, time.May, 11, 11, 0, 0, 0, time.UTC),
		},
		{
			setting: "",
			expect:  last.Add(defaultInterval),
		},
		{
			setting: "garbage",
			expect:  last.Add(defaultInterval),
		},
		{
			// zero/negative minutes fall back to the default
			setting: "0",
			expect:  last.Add(defaultInterval),
		},
	}

	for _, test := range cases {
		require.Equal(t, test.expect, nextRun(test.setting, last), test.setting)
	}
}

func TestFailureCause(t *testing.T) {
	cases := []struct {
		err    error
		expect string
	}{
		{fmt.Errorf("wrapped: %w", ute.ErrAuth), "Authentication failed"},
		{fmt.Errorf("wrapped: %w", ute.ErrConnection), "Connection failed"},
		{fmt.Errorf("wrapped: %w", ute.ErrScraper), "Failed to fetch data"},
		{errors.New("surprise"), "Unexpected error"},
	}
	for _, test := range cases {
		require.Equal(t, test.expect, failureCause(test.err))
	}
}

func TestSensorUpdates(t *testing.T) {
	eff := 40.0
	dailyTotal := 10.0
	data := ute.Summary{
		PeakEnergyKwh:    120,
		OffPeakEnergyKwh: 80,
		TotalEnergyKwh:   200,
		Efficiency:       &eff,
		PeriodStart:      "01-05-2024",
		PeriodEnd:        "10-05-2024",
	}

	updates := sensorUpdates(data, Daily{Total: &dailyTotal})

	byEntity := map[string]SensorUpdate{}
	for _, u := range updates {
		byEntity[u.EntityID] = u
	}

	require.Contains(t, byEntity, "ute_energia_punta")
	require.Contains(t, byEntity, "ute_energia_fuera_punta")
	require.Contains(t, byEntity, "ute_energia_total")
	require.Contains(t, byEntity, "ute_eficiencia")
	require.Contains(t, byEntity, "ute_periodo")
	require.Contains(t, byEntity, "ute_diario_total")
	// unknown daily figures are omitted rather than pushed as zero
	require.NotContains(t, byEntity, "ute_diario_punta")
	require.NotContains(t, byEntity, "ute_diario_fuera_punta")

	require.Equal(t, "01-05-2024 - 10-05-2024", byEntity["ute_periodo"].State)
	require.Equal(t, "total_increasing", byEntity["ute_energia_total"].StateClass)
	require.Equal(t, "total", byEntity["ute_diario_total"].StateClass)
	require.Equal(t, 40.0, byEntity["ute_eficiencia"].State)
}

func TestSensorUpdatesNoEfficiency(t *testing.T) {
	updates := sensorUpdates(ute.Summary{}, Daily{})
	for _, u := range updates {
		require.NotEqual(t, "ute_eficiencia", u.EntityID)
	}
}
