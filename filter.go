package main

import "strings"

// IgnoreFilter drops entries produced by the monitor's own polling.
type IgnoreFilter struct {
	commands map[string]struct{}
}

func NewIgnoreFilter(commands []string) *IgnoreFilter {
	set := make(map[string]struct{}, len(commands))
	for _, c := range commands {
		set[strings.ToUpper(c)] = struct{}{}
	}
	return &IgnoreFilter{commands: set}
}

func (f *IgnoreFilter) ShouldReport(entry SlowlogEntry) bool {
	if len(entry.Command) == 0 {
		return true
	}
	_, ignored := f.commands[strings.ToUpper(entry.Command[0])]
	return !ignored
}
