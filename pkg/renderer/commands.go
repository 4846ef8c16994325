package renderer

import (
	"fmt"
	"strings"
)

// Commands is a set of camera movement commands applied in one tick
type Commands uint16

const (
	StrafeLeft Commands = 1 << iota
	StrafeRight
	Forward
	Back
	Rise
	Fall
	LookUp
	LookDown
	LookLeft
	LookRight
)

var commandNames = []struct {
	command Commands
	names   []string
}{
	{StrafeLeft, []string{"a", "strafe-left"}},
	{StrafeRight, []string{"d", "strafe-right"}},
	{Forward, []string{"w", "forward"}},
	{Back, []string{"s", "back"}},
	{Rise, []string{"r", "rise"}},
	{Fall, []string{"f", "fall"}},
	{LookUp, []string{"up", "look-up"}},
	{LookDown, []string{"down", "look-down"}},
	{LookLeft, []string{"left", "look-left"}},
	{LookRight, []string{"right", "look-right"}},
}

// Has reports whether every command in other is set
func (c Commands) Has(other Commands) bool {
	return c&other == other
}

// String lists the set commands by their long names
func (c Commands) String() string {
	var names []string
	for _, entry := range commandNames {
		if c.Has(entry.command) {
			names = append(names, entry.names[1])
		}
	}
	return strings.Join(names, "+")
}

// ParseCommands parses a "+" separated set such as "w+left". Keys (w, a,
// s, d, r, f, up, down, left, right) and long names are accepted.
func ParseCommands(text string) (Commands, error) {
	var set Commands
	for _, part := range strings.Split(text, "+") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		command, ok := lookupCommand(name)
		if !ok {
			return 0, fmt.Errorf("unknown camera command %q", name)
		}
		set |= command
	}
	return set, nil
}

// ParseScript parses a comma separated list of ticks, e.g. "w,w,a+up,,d".
// An empty tick holds the camera still for one frame.
func ParseScript(script string) ([]Commands, error) {
	if strings.TrimSpace(script) == "" {
		return nil, nil
	}
	parts := strings.Split(script, ",")
	ticks := make([]Commands, 0, len(parts))
	for i, part := range parts {
		set, err := ParseCommands(part)
		if err != nil {
			return nil, fmt.Errorf("tick %d: %w", i, err)
		}
		ticks = append(ticks, set)
	}
	return ticks, nil
}

func lookupCommand(name string) (Commands, bool) {
	for _, entry := range commandNames {
		for _, n := range entry.names {
			if n == name {
				return entry.command, true
			}
		}
	}
	return 0, false
}
