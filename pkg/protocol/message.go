package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ChatMessage is the decoded payload of a message envelope.
type ChatMessage struct {
	Sender string
	Body   string
}

// messagePayload is the JSON shape nested inside a message envelope's data.
type messagePayload struct {
	From    *string `json:"from"`
	Message *string `json:"message"`
}

// EncodeChatMessage encodes m as the {from, message} text carried in a
// message envelope.
func EncodeChatMessage(m ChatMessage) (string, error) {
	data, err := json.Marshal(messagePayload{From: &m.Sender, Message: &m.Body})
	if err != nil {
		return "", fmt.Errorf("failed to encode message payload: %w", err)
	}
	return string(data), nil
}

// DecodeChatMessage decodes the {from, message} text of a message envelope.
// Every failure is a MalformedPayload DecodeError.
func DecodeChatMessage(text string) (ChatMessage, error) {
	var p messagePayload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return ChatMessage{}, malformedPayload(err)
	}
	if p.From == nil || *p.From == "" {
		return ChatMessage{}, malformedPayload(errors.New("missing sender"))
	}
	if p.Message == nil {
		return ChatMessage{}, malformedPayload(errors.New("missing message body"))
	}
	return ChatMessage{Sender: *p.From, Body: *p.Message}, nil
}
