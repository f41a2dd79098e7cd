package channel

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Event is one delivered notification instance. Once delivered it is
// immutable; the client never re-derives or edits it.
type Event struct {
	// ID is an opaque stable identifier, unique per notification. It is the
	// idempotency key for mark-read.
	ID string
	// Message is the display text.
	Message string
	// TargetURL is an optional deep link. Empty means the notification is
	// informational only and carries no navigation target.
	TargetURL string
	// CreatedAt is used for ordering and debugging only, never for
	// de-duplication. Zero when the server omitted it.
	CreatedAt time.Time
}

// wireEvent mirrors the JSON shape produced by the notification endpoints.
// The push topic historically used "idNotificacion" while the polling
// endpoint uses "id"; both are accepted.
type wireEvent struct {
	ID        flexID `json:"id"`
	LegacyID  flexID `json:"idNotificacion"`
	Message   string `json:"mensaje"`
	TargetURL string `json:"urlDestino"`
	CreatedAt string `json:"fechaCreacion"`
}

// flexID accepts both JSON strings and JSON numbers as identifiers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// createdAtLayouts covers timestamps with and without a zone offset; the
// upstream serializer emits local datetimes without one.
var createdAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// DecodeEvent parses one wire payload into an Event. It fails closed: a
// payload without an identifier or message text yields ErrMalformedEvent
// rather than propagating empty fields downstream. An absent or unparseable
// creation time is tolerated and decodes to the zero time.
func DecodeEvent(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, errors.Join(ErrMalformedEvent, err)
	}

	id := string(w.ID)
	if id == "" {
		id = string(w.LegacyID)
	}
	if id == "" {
		return Event{}, fmt.Errorf("%w: missing notification id", ErrMalformedEvent)
	}
	if w.Message == "" {
		return Event{}, fmt.Errorf("%w: missing message text", ErrMalformedEvent)
	}

	ev := Event{
		ID:        id,
		Message:   w.Message,
		TargetURL: w.TargetURL,
	}

	if w.CreatedAt != "" {
		for _, layout := range createdAtLayouts {
			if ts, err := time.Parse(layout, w.CreatedAt); err == nil {
				ev.CreatedAt = ts
				break
			}
		}
	}

	return ev, nil
}

// String implements fmt.Stringer for log output.
func (e Event) String() string {
	return "notification " + strconv.Quote(e.ID)
}
