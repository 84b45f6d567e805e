// internal/bus/message.go
package bus

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"
)

// Target tags envelopes meant for widget instances.
// The wire channel is shared, so anything else is foreign traffic.
const Target = "intelli-widgets"

const (
	KindLanguage = "language"
	KindClear    = "clear"
)

// Message is one broadcast event. The set of variants is closed.
type Message interface {
	Kind() string
	sealed()
}

// LanguageChange asks every instance to re-fetch at Locale and re-mount.
type LanguageChange struct {
	Locale string
}

func (LanguageChange) Kind() string { return KindLanguage }
func (LanguageChange) sealed()      {}

// Clear asks every instance to empty its mount points.
type Clear struct{}

func (Clear) Kind() string { return KindClear }
func (Clear) sealed()      {}

// Envelope is the wire shape of a message.
type Envelope struct {
	Target string          `json:"target"`
	Kind   string          `json:"kind"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Encode produces the wire envelope for msg.
func Encode(msg Message) ([]byte, error) {
	env := Envelope{Target: Target}

	switch m := msg.(type) {
	case LanguageChange:
		data, err := json.Marshal(m.Locale)
		if err != nil {
			return nil, err
		}
		env.Kind = KindLanguage
		env.Data = data
	case Clear:
		env.Kind = KindClear
	default:
		return nil, errors.New("bus: unknown message type")
	}

	return json.Marshal(env)
}

// Decode validates a wire envelope.
// Foreign or malformed traffic is dropped silently; a well-formed envelope
// with an unknown kind is logged and dropped.
func Decode(raw []byte, log *zap.Logger) (Message, bool) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false
	}
	if env.Target != Target || env.Kind == "" {
		return nil, false
	}

	switch env.Kind {
	case KindLanguage:
		var locale string
		if err := json.Unmarshal(env.Data, &locale); err != nil || locale == "" {
			return nil, false
		}
		return LanguageChange{Locale: locale}, true

	case KindClear:
		return Clear{}, true

	default:
		if log != nil {
			log.Warn("unknown message kind ignored", zap.String("kind", env.Kind))
		}
		return nil, false
	}
}
