package protocol

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the binary envelope. Unknown fields are skipped on
// decode so newer peers can add fields.
const (
	fieldKind         protowire.Number = 1
	fieldDataArray    protowire.Number = 2
	fieldData         protowire.Number = 3
	fieldHasDataArray protowire.Number = 4
)

type binaryCodec struct{}

func (binaryCodec) Encode(e Envelope) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}

	var b []byte
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.Kind))

	// An empty dataArray has no repeated elements, so presence is carried
	// separately to keep [] and null apart.
	if e.PayloadList != nil {
		b = protowire.AppendTag(b, fieldHasDataArray, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
		for _, s := range e.PayloadList {
			b = protowire.AppendTag(b, fieldDataArray, protowire.BytesType)
			b = protowire.AppendString(b, s)
		}
	}
	if e.PayloadText != nil {
		b = protowire.AppendTag(b, fieldData, protowire.BytesType)
		b = protowire.AppendString(b, *e.PayloadText)
	}
	return b, nil
}

func (binaryCodec) Decode(data []byte) (Envelope, error) {
	var (
		env     Envelope
		hasKind bool
		hasList bool
	)
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Envelope{}, malformed(protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Envelope{}, malformed(protowire.ParseError(n))
			}
			kind := Kind(v)
			if kind.String() == "unknown" {
				return Envelope{}, malformed(fmt.Errorf("unknown message type %d", v))
			}
			env.Kind = kind
			hasKind = true
			data = data[n:]
		case num == fieldHasDataArray && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Envelope{}, malformed(protowire.ParseError(n))
			}
			hasList = v != 0
			data = data[n:]
		case num == fieldDataArray && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return Envelope{}, malformed(protowire.ParseError(n))
			}
			env.PayloadList = append(env.PayloadList, s)
			data = data[n:]
		case num == fieldData && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return Envelope{}, malformed(protowire.ParseError(n))
			}
			env.PayloadText = &s
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Envelope{}, malformed(protowire.ParseError(n))
			}
			data = data[n:]
		}
	}

	if !hasKind {
		return Envelope{}, malformed(errors.New("missing message type"))
	}
	if hasList && env.PayloadList == nil {
		env.PayloadList = []string{}
	}
	return env, nil
}
