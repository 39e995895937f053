package ute

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func parseTree(t *testing.T, payload string) map[string]any {
	var tree map[string]any
	err := json.Unmarshal([]byte(payload), &tree)
	require.NoError(t, err)
	return tree
}

func datasetsPayload(t *testing.T, datasets string) map[string]any {
	return parseTree(t, `{
		"CONSUMO_ACTUAL": {
			"consumoActualTramoHorario": {
				"data": { "datasets": `+datasets+` }
			}
		}
	}`)
}

func TestAggregate(t *testing.T) {
	cases := []struct {
		name          string
		datasets      string
		expectPeak    float64
		expectOffPeak float64
		expectTotal   float64
		expectEff     *float64
	}{
		{
			name: "total substituted from peak plus off-peak",
			datasets: `[
				{"label": "Punta", "data": [60.0, 60.0]},
				{"label": "Fuera de Punta", "data": [40.0, 40.0]},
				{"label": "Total", "data": []}
			]`,
			expectPeak:    120.0,
			expectOffPeak: 80.0,
			expectTotal:   200.0,
			expectEff:     f64(40.0),
		},
		{
			name: "provider total preferred when present",
			datasets: `[
				{"label": "Punta", "data": [10.0]},
				{"label": "Fuera de Punta", "data": [30.0]},
				{"label": "Total", "data": [45.5]}
			]`,
			expectPeak:    10.0,
			expectOffPeak: 30.0,
			expectTotal:   45.5,
			expectEff:     f64(75.0),
		},
		{
			name: "unrecognized labels are ignored",
			datasets: `[
				{"label": "Reactiva", "data": [5.0]},
				{"label": "Algo Nuevo", "data": [9.0, 9.0]}
			]`,
			expectPeak:    0,
			expectOffPeak: 0,
			expectTotal:   0,
			expectEff:     nil,
		},
		{
			name: "zero consumption leaves efficiency null not zero",
			datasets: `[
				{"label": "Punta", "data": [0]},
				{"label": "Fuera de Punta", "data": []}
			]`,
			expectPeak:    0,
			expectOffPeak: 0,
			expectTotal:   0,
			expectEff:     nil,
		},
		{
			name: "null samples are skipped",
			datasets: `[
				{"label": "Punta", "data": [1.5, null, 2.5, null]},
				{"label": "Fuera de Punta", "data": [null, null]}
			]`,
			expectPeak:    4.0,
			expectOffPeak: 0,
			expectTotal:   4.0,
			expectEff:     f64(0),
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			tree := datasetsPayload(t, test.datasets)
			got := aggregate(tree, "01-05-2024", "10-05-2024", "12345")

			require.Equal(t, test.expectPeak, got.PeakEnergyKwh)
			require.Equal(t, test.expectOffPeak, got.OffPeakEnergyKwh)
			require.Equal(t, test.expectTotal, got.TotalEnergyKwh)
			if test.expectEff == nil {
				require.Nil(t, got.Efficiency)
			} else {
				require.NotNil(t, got.Efficiency)
				require.Equal(t, *test.expectEff, *got.Efficiency)
			}
			require.Equal(t, "01-05-2024", got.PeriodStart)
			require.Equal(t, "10-05-2024", got.PeriodEnd)
			require.Equal(t, "12345", got.SupplyPointId)
			require.Equal(t, tree, got.Raw)
		})
	}
}

func TestAggregateMissingStructure(t *testing.T) {
	// the chart payload is unversioned; absent branches must read as
	// empty data, never panic or error
	cases := []string{
		`{}`,
		`{"CONSUMO_ACTUAL": {}}`,
		`{"CONSUMO_ACTUAL": {"consumoActualTramoHorario": {}}}`,
		`{"CONSUMO_ACTUAL": {"consumoActualTramoHorario": {"data": {}}}}`,
		`{"CONSUMO_ACTUAL": {"consumoActualTramoHorario": {"data": {"datasets": "bogus"}}}}`,
		`{"CONSUMO_ACTUAL": {"consumoActualTramoHorario": {"data": {"datasets": [42, "x"]}}}}`,
	}

	for _, payload := range cases {
		got := aggregate(parseTree(t, payload), "01-05-2024", "10-05-2024", "1")
		require.Equal(t, 0.0, got.PeakEnergyKwh, payload)
		require.Equal(t, 0.0, got.OffPeakEnergyKwh, payload)
		require.Equal(t, 0.0, got.TotalEnergyKwh, payload)
		require.Nil(t, got.Efficiency, payload)
	}
}

func TestAggregateRounding(t *testing.T) {
	tree := datasetsPayload(t, `[
		{"label": "Punta", "data": [0.111, 0.222]},
		{"label": "Fuera de Punta", "data": [0.333]}
	]`)
	got := aggregate(tree, "01-05-2024", "10-05-2024", "1")

	require.Equal(t, 0.33, got.PeakEnergyKwh)
	require.Equal(t, 0.33, got.OffPeakEnergyKwh)
	require.Equal(t, 0.67, got.TotalEnergyKwh)
	require.NotNil(t, got.Efficiency)
	require.Equal(t, 50.0, *got.Efficiency)
}

func TestPeriodRange(t *testing.T) {
	cases := []struct {
		now         time.Time
		expectStart string
		expectEnd   string
	}{
		{
			now:         time.Date(2024, time.May, 11, 15, 0, 0, 0, time.UTC),
			expectStart: "01-05-2024",
			expectEnd:   "10-05-2024",
		},
		{
			// on the 1st the whole period collapses into the last day of
			// the previous month instead of inverting
			now:         time.Date(2024, time.June, 1, 2, 0, 0, 0, time.UTC),
			expectStart: "01-05-2024",
			expectEnd:   "31-05-2024",
		},
		{
			now:         time.Date(2024, time.January, 1, 0, 30, 0, 0, time.UTC),
			expectStart: "01-12-2023",
			expectEnd:   "31-12-2023",
		},
	}

	for _, test := range cases {
		start, end := periodRange(test.now)
		require.Equal(t, test.expectStart, start)
		require.Equal(t, test.expectEnd, end)
	}
}

func f64(v float64) *float64 {
	return &v
}
