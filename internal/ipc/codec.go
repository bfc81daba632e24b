package ipc

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Encoder frames messages onto a stream, one JSON object per line. Send is
// safe for concurrent use; the worker writes QUIT from its reader goroutine
// while the coordination side may still hold the encoder.
type Encoder struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewEncoder wraps the writer half of a channel.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: json.NewEncoder(w)}
}

// Send writes one message.
func (e *Encoder) Send(msg Message) error {
	if !knownType(msg.Type) {
		return fmt.Errorf("ipc: refusing to send unknown message type %q", msg.Type)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(msg)
}

// Decoder reads framed messages off a stream. Next returns io.EOF (or the
// underlying read error) once the channel is lost, which callers use as the
// crash-versus-clean-exit signal.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder wraps the reader half of a channel.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

// Next blocks for the next message.
func (d *Decoder) Next() (Message, error) {
	var msg Message
	if err := d.dec.Decode(&msg); err != nil {
		return Message{}, err
	}
	if !knownType(msg.Type) {
		return Message{}, fmt.Errorf("ipc: unknown message type %q", msg.Type)
	}
	return msg, nil
}

func knownType(t string) bool {
	switch t {
	case TypeScanOne, TypePluginFound, TypeError, TypeScanComplete, TypeQuit:
		return true
	}
	return false
}
