package service

import "context"

// Broadcaster pushes messages to the live connections of a session (avoids import cycle)
type Broadcaster interface {
	SendToSession(sessionID string, msgType string, payload interface{})
	DisconnectSession(sessionID string)
}

// Prompter asks a yes/no question over a session's live connection and waits
// for the answer. It returns an error when nobody is connected.
type Prompter interface {
	Prompt(ctx context.Context, sessionID, prompt string) (bool, error)
}
