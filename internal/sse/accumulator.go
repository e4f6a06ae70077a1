package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DoneMarker is the payload that terminates a chat-completion stream.
const DoneMarker = "[DONE]"

// ErrMalformedChunk is returned when a complete event carries an unparseable payload.
var ErrMalformedChunk = errors.New("malformed stream chunk")

type completionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Accumulator assembles assistant text from chat-completion stream events.
type Accumulator struct {
	text strings.Builder
	done bool
}

// Add applies ev and returns the text it contributed. Events after the
// done marker are ignored. Some gateways put several chunks in one event,
// one per data line; when the joined payload does not decode, each line is
// applied on its own.
func (a *Accumulator) Add(ev Event) (string, error) {
	if a.done {
		return "", nil
	}

	delta, err := a.apply(ev.Data)
	if err == nil || !strings.Contains(ev.Data, "\n") {
		return delta, err
	}

	var b strings.Builder
	for _, line := range strings.Split(ev.Data, "\n") {
		if a.done {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		d, err := a.apply(line)
		b.WriteString(d)
		if err != nil {
			return b.String(), err
		}
	}
	return b.String(), nil
}

func (a *Accumulator) apply(data string) (string, error) {
	payload := strings.TrimSpace(data)
	if payload == DoneMarker {
		a.done = true
		return "", nil
	}

	var chunk completionChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedChunk, err)
	}
	if len(chunk.Choices) == 0 {
		return "", nil
	}

	delta := chunk.Choices[0].Delta.Content
	a.text.WriteString(delta)
	return delta, nil
}

// Done reports whether the done marker has been seen.
func (a *Accumulator) Done() bool {
	return a.done
}

// Text returns everything accumulated so far.
func (a *Accumulator) Text() string {
	return a.text.String()
}

// Consume reads an event stream from r until EOF or the done marker,
// calling onDelta for every non-empty piece of text. It returns the full text.
func Consume(r io.Reader, onDelta func(string)) (string, error) {
	dec := NewDecoder()
	var acc Accumulator
	buf := make([]byte, 4096)

	apply := func(events []Event) error {
		for _, ev := range events {
			delta, err := acc.Add(ev)
			if err != nil {
				return err
			}
			if delta != "" && onDelta != nil {
				onDelta(delta)
			}
		}
		return nil
	}

	for !acc.Done() {
		n, readErr := r.Read(buf)
		if n > 0 {
			if err := apply(dec.Feed(buf[:n])); err != nil {
				return acc.Text(), err
			}
		}
		if readErr == io.EOF {
			if err := apply(dec.Flush()); err != nil {
				return acc.Text(), err
			}
			break
		}
		if readErr != nil {
			return acc.Text(), fmt.Errorf("failed to read event stream: %w", readErr)
		}
	}
	return acc.Text(), nil
}
