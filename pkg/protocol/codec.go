package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Codec maps envelopes to raw frames and back.
type Codec interface {
	Encode(e Envelope) ([]byte, error)
	Decode(data []byte) (Envelope, error)
}

var (
	// JSON is the text codec spoken with the chat server.
	JSON Codec = jsonCodec{}
	// Binary is a compact protobuf wire encoding used on raw TCP links.
	Binary Codec = binaryCodec{}
)

// Encode encodes e with the JSON codec.
func Encode(e Envelope) ([]byte, error) {
	return JSON.Encode(e)
}

// MustEncode is like Encode but panics on envelopes that violate the
// payload rules of their kind.
func MustEncode(e Envelope) []byte {
	data, err := Encode(e)
	if err != nil {
		panic(err)
	}
	return data
}

// Decode decodes a JSON frame.
func Decode(data []byte) (Envelope, error) {
	return JSON.Decode(data)
}

// wireEnvelope is the JSON form of Envelope. Keeping it private isolates
// the field naming convention from the public API.
type wireEnvelope struct {
	MessageType *string  `json:"messageType"`
	DataArray   []string `json:"dataArray"`
	Data        *string  `json:"data"`
}

type jsonCodec struct{}

func (jsonCodec) Encode(e Envelope) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	data, err := json.Marshal(toWire(e))
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	return data, nil
}

func (jsonCodec) Decode(data []byte) (Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return Envelope{}, malformed(err)
	}
	return fromWire(w)
}

func toWire(e Envelope) wireEnvelope {
	tag := e.Kind.String()
	return wireEnvelope{
		MessageType: &tag,
		DataArray:   e.PayloadList,
		Data:        e.PayloadText,
	}
}

func fromWire(w wireEnvelope) (Envelope, error) {
	if w.MessageType == nil {
		return Envelope{}, malformed(errors.New("missing messageType"))
	}
	kind, err := ParseKind(*w.MessageType)
	if err != nil {
		return Envelope{}, malformed(err)
	}
	return Envelope{Kind: kind, PayloadList: w.DataArray, PayloadText: w.Data}, nil
}
