package repl

import (
	"sort"
	"strings"
)

// Completer suggests command verbs.
type Completer struct {
	commands []string
}

// NewCompleter creates a completer over verbs plus the local commands.
func NewCompleter(verbs []string) *Completer {
	cmds := append([]string{"help", "exit"}, verbs...)
	sort.Strings(cmds)
	return &Completer{commands: cmds}
}

// Commands returns every known command, sorted.
func (c *Completer) Commands() []string {
	return c.commands
}

// Complete returns the commands starting with prefix, ignoring case.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.ToLower(prefix)
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
