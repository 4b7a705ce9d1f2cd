package sse_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopchat/backend/internal/sse"
)

// drainChunks reads events until the stream ends, returning the chunk texts
// in order and the terminal event.
func drainChunks(t *testing.T, d *sse.Decoder) ([]string, sse.Event) {
	t.Helper()
	var chunks []string
	for {
		ev, err := d.Next()
		require.NoError(t, err)
		switch ev.Kind {
		case sse.KindChunk:
			chunks = append(chunks, ev.Text)
		default:
			return chunks, ev
		}
	}
}

func TestDecoder_ChunksAndEnd(t *testing.T) {
	body := "data: {\"type\":\"start\",\"model\":\"gemini-2.0-flash\"}\n\n" +
		"data: {\"type\":\"chunk\",\"text\":\"Hello\"}\n\n" +
		"data: {\"type\":\"chunk\",\"text\":\" world\"}\n\n" +
		"data: {\"type\":\"done\"}\n\n"

	d := sse.NewDecoder(strings.NewReader(body))
	chunks, last := drainChunks(t, d)

	assert.Equal(t, []string{"Hello", " world"}, chunks)
	assert.Equal(t, sse.KindEnd, last.Kind)
}

func TestDecoder_ErrorFrameTerminates(t *testing.T) {
	body := "data: {\"type\":\"chunk\",\"text\":\"partial\"}\n" +
		"data: {\"type\":\"error\",\"error\":\"model overloaded\"}\n" +
		"data: {\"type\":\"chunk\",\"text\":\"never delivered\"}\n"

	d := sse.NewDecoder(strings.NewReader(body))

	ev, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, sse.KindChunk, ev.Kind)

	ev, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, sse.KindError, ev.Kind)
	assert.Equal(t, "model overloaded", ev.Message)

	// The stream is exhausted after an error frame; chunks after it are
	// never surfaced.
	ev, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, sse.KindEnd, ev.Kind)
}

func TestDecoder_SkipsMalformedLines(t *testing.T) {
	body := ": keep-alive comment\n" +
		"data: not json at all\n" +
		"data: {\"type\":\"unknown\",\"text\":\"x\"}\n" +
		"event: something\n" +
		"data: {\"type\":\"chunk\",\"text\":\"ok\"}\n"

	d := sse.NewDecoder(strings.NewReader(body))
	chunks, last := drainChunks(t, d)

	assert.Equal(t, []string{"ok"}, chunks)
	assert.Equal(t, sse.KindEnd, last.Kind)
}

// TestDecoder_SplitAcrossReads verifies that a frame arriving in two read
// buffers is reassembled before parsing.
func TestDecoder_SplitAcrossReads(t *testing.T) {
	parts := []string{
		"data: {\"type\":\"chu",
		"nk\",\"text\":\"spliced\"}\n",
	}
	d := sse.NewDecoder(&chunkedReader{parts: parts})

	ev, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, sse.KindChunk, ev.Kind)
	assert.Equal(t, "spliced", ev.Text)

	ev, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, sse.KindEnd, ev.Kind)
}

func TestDecoder_UnterminatedFinalLine(t *testing.T) {
	// No trailing newline: the last line is parsed at EOF.
	body := "data: {\"type\":\"chunk\",\"text\":\"tail\"}"
	d := sse.NewDecoder(strings.NewReader(body))

	ev, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, sse.KindChunk, ev.Kind)
	assert.Equal(t, "tail", ev.Text)
}

func TestDecoder_EmptyInput(t *testing.T) {
	d := sse.NewDecoder(strings.NewReader(""))
	ev, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, sse.KindEnd, ev.Kind)
}

// chunkedReader yields one part per Read call to simulate network framing.
type chunkedReader struct {
	parts []string
	i     int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if c.i >= len(c.parts) {
		return 0, io.EOF
	}
	n := copy(p, c.parts[c.i])
	c.i++
	return n, nil
}
