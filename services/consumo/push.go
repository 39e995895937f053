package consumo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"uteconsumo-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
)

var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput enables request/response dumps for the push
// client; call before NewPushClient.
func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyInstrumentOutput = output
}

// PushClient mirrors refreshed metrics into the automation hub's state
// ingestion API.
type PushClient struct {
	http *resty.Client
}

func NewPushClient(baseURL, token string) PushClient {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("content-type", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}
	client.SetTimeout(time.Second * 10)

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return PushClient{http: client}
}

// SensorUpdate is one metric refresh. Only non-empty attribute fields are
// sent.
type SensorUpdate struct {
	EntityID    string
	State       any
	Unit        string
	Icon        string
	DeviceClass string
	StateClass  string
}

type statePayload struct {
	State      any            `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

func (c PushClient) UpdateSensor(ctx context.Context, update SensorUpdate) error {
	attributes := map[string]any{
		"friendly_name": friendlyName(update.EntityID),
	}
	if update.Unit != "" {
		attributes["unit_of_measurement"] = update.Unit
	}
	if update.Icon != "" {
		attributes["icon"] = update.Icon
	}
	if update.DeviceClass != "" {
		attributes["device_class"] = update.DeviceClass
	}
	if update.StateClass != "" {
		attributes["state_class"] = update.StateClass
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(statePayload{State: update.State, Attributes: attributes}).
		Post(fmt.Sprintf("/api/states/sensor.%s", update.EntityID))
	if err != nil {
		return fmt.Errorf("push sensor %s: %w", update.EntityID, err)
	}
	if res.IsError() {
		return fmt.Errorf("push sensor %s: status %d", update.EntityID, res.StatusCode())
	}
	return nil
}

// friendlyName derives a display name from an entity id:
// "ute_energia_punta" -> "UTE Energia Punta".
func friendlyName(entityID string) string {
	rest := strings.TrimPrefix(entityID, "ute_")
	words := strings.Split(rest, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if rest == entityID {
		return strings.Join(words, " ")
	}
	return "UTE " + strings.Join(words, " ")
}
