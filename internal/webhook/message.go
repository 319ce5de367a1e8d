package webhook

import (
	"encoding/json"
	"time"
)

// Kind classifies a notification.
type Kind string

const (
	KindAlert       Kind = "alert"
	KindStatus      Kind = "status"
	KindTest        Kind = "test"
	KindSystemEvent Kind = "system_event"
)

// Slack attachment colors understood by the sink.
const (
	ColorGood    = "good"
	ColorWarning = "warning"
	ColorDanger  = "danger"
)

// Message is a transient formatted notification. The dispatcher renders it
// into the sink's attachment payload; nothing is retained after delivery.
type Message struct {
	Kind      Kind
	Title     string
	Color     string
	Fields    []Field
	Timestamp time.Time
}

// Field is one ordered label/value pair in a message. Short fields render
// side by side in the sink UI.
type Field struct {
	Label string
	Value string
	Short bool
}

// attachment mirrors the Slack incoming-webhook attachment schema.
type attachment struct {
	Color  string            `json:"color"`
	Text   string            `json:"text"`
	TS     int64             `json:"ts"`
	Fields []attachmentField `json:"fields,omitempty"`
}

type attachmentField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// payload renders m as the sink's JSON wire format.
func (m Message) payload() ([]byte, error) {
	a := attachment{
		Color: m.Color,
		Text:  m.Title,
		TS:    m.Timestamp.Unix(),
	}
	for _, f := range m.Fields {
		a.Fields = append(a.Fields, attachmentField{Title: f.Label, Value: f.Value, Short: f.Short})
	}
	return json.Marshal(map[string][]attachment{"attachments": {a}})
}
