// Package interpreter resolves command lines against the virtual filesystem
// or forwards them to a remote terminal server.
package interpreter

import "strings"

// Parse splits a line into a command token and positional arguments. Runs of
// spaces collapse; there is no quoting or escaping.
func Parse(line string) (string, []string) {
	var tokens []string
	for _, token := range strings.Split(strings.TrimSpace(line), " ") {
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	if len(tokens) == 0 {
		return "", nil
	}
	return tokens[0], tokens[1:]
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
