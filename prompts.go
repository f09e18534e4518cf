package main

import (
	"fmt"
	"strings"
)

func GetSlowlogDigestPrompt(entries []digestEntry) string {
	var b strings.Builder
	b.WriteString("# Redis slow command analysis:\n\n")
	b.WriteString("Your job is to generate a markdown report analyzing the provided Redis SLOWLOG entries. Focus on why they are slow (e.g., O(N) commands on large keys, KEYS or SMEMBERS on big sets, unbounded ranges, Lua scripts, blocking operations). Keep it concise and pragmatic - use lists for your findings.\n")
	b.WriteString("Group entries that share a command name and key pattern, and suggest cheaper alternatives (SCAN instead of KEYS, pipelining, smaller ranges, data model changes) where applicable.\n")
	b.WriteString("Mention the client address and client name when present - they help the reader find where a command comes from.\n")
	fmt.Fprintf(&b, "There are %d slow commands to analyze:\n", len(entries))
	for i, e := range entries {
		fmt.Fprintf(&b, "\n## Slow command no. %d\n\n", i+1)
		fmt.Fprintf(&b, "Logged at: %s\n", e.at.UTC().Format("2006-01-02T15:04:05Z"))
		fmt.Fprintf(&b, "Execution time (microseconds): %d\n", e.entry.Duration.Microseconds())
		if e.entry.Address != "" {
			fmt.Fprintf(&b, "Client address: %s\n", e.entry.Address)
		}
		if e.entry.ClientName != "" {
			fmt.Fprintf(&b, "Client name: %s\n", e.entry.ClientName)
		}
		b.WriteString("```\n")
		b.WriteString(strings.Join(e.entry.Command, " "))
		b.WriteString("\n```\n")
	}
	return b.String()
}
