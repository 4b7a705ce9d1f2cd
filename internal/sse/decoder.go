// Package sse decodes the model service's server-sent-event wire format into
// discrete stream events. Each decodable frame is a line of the form
//
//	data: {"type":"chunk","text":"..."}
//	data: {"type":"error","error":"..."}
//
// Any other line (keep-alive comments, blank separators, "start"/"done"
// frames, malformed JSON) is skipped silently. This leniency is
// deliberate: the upstream interleaves bookkeeping frames with content and
// clients must not treat them as failures.
package sse

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// Kind discriminates the event union.
type Kind int

const (
	// KindChunk carries one incremental slice of assistant text.
	KindChunk Kind = iota
	// KindError is a terminal error frame from the upstream.
	KindError
	// KindEnd marks normal end of input.
	KindEnd
)

// Event is one decoded stream event.
type Event struct {
	Kind    Kind
	Text    string // set for KindChunk
	Message string // set for KindError
}

const dataPrefix = "data: "

// frame is the JSON payload of a decodable line.
type frame struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Error string `json:"error"`
}

// Decoder reads events off an incremental byte stream. Lines split across
// read buffers are reassembled before parsing; a partial trailing line is
// held until more bytes arrive.
type Decoder struct {
	r    *bufio.Reader
	done bool
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next event. After a KindError or KindEnd event the stream
// is exhausted and Next keeps returning KindEnd. I/O failures other than EOF
// are returned as errors; the caller decides whether they are fatal.
func (d *Decoder) Next() (Event, error) {
	if d.done {
		return Event{Kind: KindEnd}, nil
	}
	for {
		line, err := d.r.ReadString('\n')
		if ev, ok := d.decodeLine(line); ok {
			if ev.Kind == KindError {
				d.done = true
			}
			return ev, nil
		}
		if err != nil {
			d.done = true
			if errors.Is(err, io.EOF) {
				// End of input with no terminal frame is a normal end.
				return Event{Kind: KindEnd}, nil
			}
			return Event{Kind: KindEnd}, err
		}
	}
}

// decodeLine parses a single line into an event. The boolean is false when
// the line is skipped per the leniency policy.
func (d *Decoder) decodeLine(line string) (Event, bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, dataPrefix) {
		return Event{}, false
	}
	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == "" {
		return Event{}, false
	}
	var f frame
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		return Event{}, false
	}
	switch f.Type {
	case "chunk":
		if f.Text == "" {
			return Event{}, false
		}
		return Event{Kind: KindChunk, Text: f.Text}, true
	case "error":
		return Event{Kind: KindError, Message: f.Error}, true
	default:
		// "start", "done" and friends carry no content.
		return Event{}, false
	}
}
