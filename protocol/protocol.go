package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"candy-rush/models"
)

// Envelope wraps every outbound event.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// ClientMessage is the union of every inbound event payload; each event reads
// only the fields it needs.
type ClientMessage struct {
	Type          string                     `json:"type"`
	RoomCode      string                     `json:"roomCode,omitempty"`
	PlayerName    string                     `json:"playerName,omitempty"`
	Mode          string                     `json:"mode,omitempty"`
	Color         string                     `json:"color,omitempty"`
	Customization []models.CustomizationItem `json:"customization,omitempty"`
	X             *float64                   `json:"x,omitempty"`
	CandyID       *int                       `json:"candyId,omitempty"`
	ObstacleID    *int                       `json:"obstacleId,omitempty"`
}

type Codec interface {
	Name() string
	Binary() bool
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Binary() bool { return false }

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// MsgPackCodec reuses the json struct tags, omitempty included, so both codecs
// share one schema.
type MsgPackCodec struct{}

func (MsgPackCodec) Name() string { return "msgpack" }

func (MsgPackCodec) Binary() bool { return true }

func (MsgPackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (MsgPackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// CodecByName resolves the ?codec= query value; empty selects JSON.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgPackCodec{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

func Encode(c Codec, msgType string, data any) ([]byte, error) {
	if msgType == "" {
		return nil, fmt.Errorf("encode: empty message type")
	}
	return c.Marshal(Envelope{Type: msgType, Data: data})
}

func Decode(c Codec, b []byte) (ClientMessage, error) {
	var msg ClientMessage
	if len(b) == 0 {
		return msg, fmt.Errorf("decode: empty frame")
	}
	if err := c.Unmarshal(b, &msg); err != nil {
		return msg, fmt.Errorf("decode: %w", err)
	}
	if msg.Type == "" {
		return msg, fmt.Errorf("decode: message missing type field")
	}
	return msg, nil
}
