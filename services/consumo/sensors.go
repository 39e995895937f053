package consumo

import (
	"fmt"

	"uteconsumo-backend/lib/scrapers/ute"
)

// sensorUpdates maps a refreshed summary plus derived daily figures onto
// the hub's sensor set. Sensors whose value is unknown are omitted rather
// than pushed as zero.
func sensorUpdates(data ute.Summary, daily Daily) []SensorUpdate {
	var updates []SensorUpdate

	updates = append(updates,
		SensorUpdate{
			EntityID:    "ute_energia_punta",
			State:       data.PeakEnergyKwh,
			Unit:        "kWh",
			Icon:        "mdi:flash",
			DeviceClass: "energy",
			StateClass:  "total_increasing",
		},
		SensorUpdate{
			EntityID:    "ute_energia_fuera_punta",
			State:       data.OffPeakEnergyKwh,
			Unit:        "kWh",
			Icon:        "mdi:flash-outline",
			DeviceClass: "energy",
			StateClass:  "total_increasing",
		},
		SensorUpdate{
			EntityID:    "ute_energia_total",
			State:       data.TotalEnergyKwh,
			Unit:        "kWh",
			Icon:        "mdi:lightning-bolt",
			DeviceClass: "energy",
			StateClass:  "total_increasing",
		},
	)

	if data.Efficiency != nil {
		updates = append(updates, SensorUpdate{
			EntityID: "ute_eficiencia",
			State:    *data.Efficiency,
			Unit:     "%",
			Icon:     "mdi:percent",
		})
	}

	if data.PeriodStart != "" && data.PeriodEnd != "" {
		updates = append(updates, SensorUpdate{
			EntityID: "ute_periodo",
			State:    fmt.Sprintf("%s - %s", data.PeriodStart, data.PeriodEnd),
			Icon:     "mdi:calendar-range",
		})
	}

	if daily.Peak != nil {
		updates = append(updates, SensorUpdate{
			EntityID:    "ute_diario_punta",
			State:       *daily.Peak,
			Unit:        "kWh",
			Icon:        "mdi:flash",
			DeviceClass: "energy",
			StateClass:  "total",
		})
	}
	if daily.OffPeak != nil {
		updates = append(updates, SensorUpdate{
			EntityID:    "ute_diario_fuera_punta",
			State:       *daily.OffPeak,
			Unit:        "kWh",
			Icon:        "mdi:flash-outline",
			DeviceClass: "energy",
			StateClass:  "total",
		})
	}
	if daily.Total != nil {
		updates = append(updates, SensorUpdate{
			EntityID:    "ute_diario_total",
			State:       *daily.Total,
			Unit:        "kWh",
			Icon:        "mdi:lightning-bolt",
			DeviceClass: "energy",
			StateClass:  "total",
		})
	}

	return updates
}
