package assets

import (
	_ "embed"
)

// DefaultConfigYAML contains the embedded default configuration.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte

// DefaultGuardrailYAML contains the embedded default guardrail rules for
// commands forwarded to a terminal server.
//
//go:embed defaults/guardrail.yaml
var DefaultGuardrailYAML []byte

// DefaultTreeYAML contains the demo virtual filesystem.
//
//go:embed defaults/tree.yaml
var DefaultTreeYAML []byte
