package hsi

import "github.com/mitchellh/mapstructure"

// PlatformErrorToken is the reserved event-name prefix SCXML-style engines
// use to signal a platform error. An incoming event whose name starts with
// this token and which the current state cannot handle is escalated to the
// error listeners (see Interpreter.OnError).
const PlatformErrorToken = "error.platform"

// Event is the normalized shape every send, delayed send, and self-raised
// action event is reduced to before it reaches the machine collaborator.
//
// Name is the event type string. Data is the caller-supplied payload.
// Origin, when set, names the actor that sent the event (stamped by
// sendTo). ID distinguishes delayed sends from each other for cancellation.
type Event struct {
	Name   string
	Data   any
	Origin string
	ID     string
}

// ToSCXMLEvent normalizes any of the three accepted event shapes — a bare
// type string, a map/struct carrying a "type" field, or an already-built
// Event — into an Event. Send/TrySend, Batch and NextState run it on
// their input; sendTo and delayed-send firing receive an already-built
// Event and do not call it.
func ToSCXMLEvent(v any) Event {
	switch e := v.(type) {
	case Event:
		return e
	case string:
		return Event{Name: e}
	case map[string]any:
		return eventFromMap(e)
	default:
		return eventFromStruct(e)
	}
}

func eventFromMap(m map[string]any) Event {
	var e Event
	name, _ := m["type"].(string)
	if name == "" {
		name, _ = m["Name"].(string)
	}
	e.Name = name
	if data, ok := m["data"]; ok {
		e.Data = data
	} else if data, ok := m["Data"]; ok {
		e.Data = data
	}
	return e
}

// eventFromStruct uses mapstructure to decode loosely-typed external
// payloads (e.g. a user struct with a "Type"/"type" field, or a map type
// other than map[string]any, which eventFromMap handles) into an Event,
// rather than requiring every caller to hand-build one.
func eventFromStruct(v any) Event {
	var decoded struct {
		Type string `mapstructure:"type"`
		Data any    `mapstructure:"data"`
	}
	if err := mapstructure.Decode(v, &decoded); err == nil && decoded.Type != "" {
		return Event{Name: decoded.Type, Data: decoded.Data}
	}
	return Event{Data: v}
}

// IsPlatformError reports whether the event's name carries the reserved
// platform-error prefix.
func (e Event) IsPlatformError() bool {
	return len(e.Name) >= len(PlatformErrorToken) && e.Name[:len(PlatformErrorToken)] == PlatformErrorToken
}
