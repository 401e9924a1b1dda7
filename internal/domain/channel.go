package domain

// ConnectionStatus is the state of the remote execution channel.
type ConnectionStatus string

const (
	StatusConnecting   ConnectionStatus = "Connecting"
	StatusConnected    ConnectionStatus = "Connected"
	StatusDisconnected ConnectionStatus = "Disconnected"
	StatusFailed       ConnectionStatus = "Failed"
)

// MessageTypeExecute and MessageTypeOutput are the envelope type tags.
const (
	MessageTypeExecute = "execute_command"
	MessageTypeOutput  = "command_output"
)

// OutboundMessage asks the terminal server to run a command.
type OutboundMessage struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Cwd     string `json:"cwd,omitempty"`
}

// InboundMessage covers both server envelopes: the typed command_output form
// and the raw {output, error, cwd} form.
type InboundMessage struct {
	Type      string `json:"type,omitempty"`
	Command   string `json:"command,omitempty"`
	Output    string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
	Cwd       string `json:"cwd,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ChannelEvent is delivered asynchronously by the remote channel. Exactly one of
// Message or Status is meaningful: Status is empty for message events.
type ChannelEvent struct {
	Message InboundMessage
	Status  ConnectionStatus
	Err     error
}

// IsStatus reports whether the event is a connection state change.
func (e ChannelEvent) IsStatus() bool {
	return e.Status != ""
}
