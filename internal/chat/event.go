package chat

import (
	"encoding/json"
	"time"
)

// systemUsername marks presence notifications on the wire.
const systemUsername = "System"

// History replay keeps the compact format; live events use RFC3339.
const historyTimeFormat = "2006-01-02 15:04:05"

// Event is the server->client frame for chat messages, history replay
// and presence notifications.
type Event struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// inboundMessage is the client->server frame.
type inboundMessage struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// errorEvent is sent only to the offending client, never broadcast.
type errorEvent struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

func chatFrame(username, text string, ts time.Time) []byte {
	p, _ := json.Marshal(Event{
		Username:  username,
		Message:   text,
		Timestamp: ts.UTC().Format(time.RFC3339),
	})
	return p
}

func historyFrame(username, text string, ts time.Time) []byte {
	p, _ := json.Marshal(Event{
		Username:  username,
		Message:   text,
		Timestamp: ts.UTC().Format(historyTimeFormat),
	})
	return p
}

func systemFrame(text string, ts time.Time) []byte {
	return chatFrame(systemUsername, text, ts)
}

func errorFrame(text string, ts time.Time) []byte {
	p, _ := json.Marshal(errorEvent{
		Error:     text,
		Timestamp: ts.UTC().Format(time.RFC3339),
	})
	return p
}
