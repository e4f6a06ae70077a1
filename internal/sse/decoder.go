// Package sse decodes text/event-stream bodies incrementally.
package sse

import (
	"bytes"
	"strings"
)

// Event is one dispatched server-sent event.
type Event struct {
	Type string
	ID   string
	Data string
}

// Decoder is an incremental event-stream parser. Network chunks may split
// lines and events anywhere; the decoder keeps the partial line and the
// partially built event between Feed calls.
type Decoder struct {
	partial   []byte
	data      []string
	eventType string
	id        string
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed consumes a chunk and returns every event completed by it.
func (d *Decoder) Feed(chunk []byte) []Event {
	d.partial = append(d.partial, chunk...)

	var events []Event
	for {
		i := bytes.IndexByte(d.partial, '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimSuffix(d.partial[:i], []byte{'\r'}))
		d.partial = d.partial[i+1:]

		if ev, ok := d.processLine(line); ok {
			events = append(events, ev)
		}
	}

	// Reclaim the consumed prefix so long streams do not pin old chunks.
	if len(d.partial) == 0 {
		d.partial = nil
	}
	return events
}

// Flush ends the stream. A trailing line without a newline is processed and
// any event still being built is dispatched.
func (d *Decoder) Flush() []Event {
	var events []Event
	if len(d.partial) > 0 {
		line := strings.TrimSuffix(string(d.partial), "\r")
		d.partial = nil
		if ev, ok := d.processLine(line); ok {
			events = append(events, ev)
		}
	}
	if ev, ok := d.dispatch(); ok {
		events = append(events, ev)
	}
	return events
}

func (d *Decoder) processLine(line string) (Event, bool) {
	if line == "" {
		return d.dispatch()
	}
	if strings.HasPrefix(line, ":") {
		return Event{}, false
	}

	field, value, found := strings.Cut(line, ":")
	if found {
		value = strings.TrimPrefix(value, " ")
	}

	switch field {
	case "data":
		d.data = append(d.data, value)
	case "event":
		d.eventType = value
	case "id":
		d.id = value
	}
	return Event{}, false
}

// dispatch emits the pending event. Blank lines with no data are noise.
func (d *Decoder) dispatch() (Event, bool) {
	if len(d.data) == 0 {
		d.eventType = ""
		return Event{}, false
	}

	ev := Event{
		Type: d.eventType,
		ID:   d.id,
		Data: strings.Join(d.data, "\n"),
	}
	d.data = nil
	d.eventType = ""
	return ev, true
}
