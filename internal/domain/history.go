package domain

import "time"

// CommandRecord is one persisted command and the text it produced.
type CommandRecord struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	Output     string    `json:"output"`
	ExecutedAt time.Time `json:"executed_at"`
}
