package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-seller-dashboard/products"
)

// Channel protocol events.
const (
	eventJoin            = "phx_join"
	eventReply           = "phx_reply"
	eventError           = "phx_error"
	eventClose           = "phx_close"
	eventHeartbeat       = "heartbeat"
	eventPostgresChanges = "postgres_changes"
	eventSystem          = "system"

	heartbeatTopic = "phoenix"
)

// Message is one frame of the channel protocol.
type Message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
	JoinRef string          `json:"join_ref,omitempty"`
}

type changeFilter struct {
	Event  string `json:"event"`
	Schema string `json:"schema"`
	Table  string `json:"table"`
}

type joinPayload struct {
	Config struct {
		Broadcast struct {
			Self bool `json:"self"`
		} `json:"broadcast"`
		Presence struct {
			Key string `json:"key"`
		} `json:"presence"`
		PostgresChanges []changeFilter `json:"postgres_changes"`
	} `json:"config"`
	AccessToken string `json:"access_token,omitempty"`
}

func newJoinPayload(schema, table, accessToken string) joinPayload {
	var p joinPayload
	p.Config.PostgresChanges = []changeFilter{{Event: "*", Schema: schema, Table: table}}
	p.AccessToken = accessToken
	return p
}

type replyPayload struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

type changePayload struct {
	Data struct {
		Schema          string          `json:"schema"`
		Table           string          `json:"table"`
		CommitTimestamp string          `json:"commit_timestamp"`
		Type            string          `json:"type"`
		Record          json.RawMessage `json:"record"`
		OldRecord       json.RawMessage `json:"old_record"`
	} `json:"data"`
}

// ParseChange decodes a postgres_changes payload into a product change.
// DELETE events carry the removed row in old_record.
func ParseChange(payload json.RawMessage) (products.Change, error) {
	var p changePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return products.Change{}, fmt.Errorf("[ParseChange] decoding payload: %w", err)
	}

	change := products.Change{Type: products.EventType(p.Data.Type)}
	raw := p.Data.Record
	if change.Type == products.EventDelete {
		raw = p.Data.OldRecord
	}
	if len(raw) == 0 || string(raw) == "null" {
		return products.Change{}, fmt.Errorf("[ParseChange] %s event without a row", p.Data.Type)
	}

	var row products.Row
	if err := json.Unmarshal(raw, &row); err != nil {
		return products.Change{}, fmt.Errorf("[ParseChange] decoding row: %w", err)
	}
	if row.ID == "" {
		return products.Change{}, fmt.Errorf("[ParseChange] %s row without an id", p.Data.Type)
	}
	change.Product = row.Product()
	return change, nil
}
