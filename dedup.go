package main

import (
	"errors"
	"fmt"
	"time"
)

// maxTimestamp is +262143-12-31T23:59:59Z, the latest calendar instant a
// slowlog timestamp is accepted for.
const maxTimestamp = 8210298412799

var ErrInvalidTimestamp = errors.New("invalid slowlog timestamp")

type Verdict int

const (
	VerdictNew Verdict = iota
	VerdictSeen
	VerdictInvalidTimestamp
)

func (v Verdict) String() string {
	switch v {
	case VerdictNew:
		return "new"
	case VerdictSeen:
		return "seen"
	case VerdictInvalidTimestamp:
		return "invalid-timestamp"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// EntryTime converts a slowlog unix timestamp into a UTC instant.
func EntryTime(ts uint64) (time.Time, error) {
	if ts > maxTimestamp {
		return time.Time{}, fmt.Errorf("%w: %d is out of range", ErrInvalidTimestamp, ts)
	}
	return time.Unix(int64(ts), 0).UTC(), nil
}

type Deduplicator struct {
	registry *SeenRegistry
}

func NewDeduplicator(registry *SeenRegistry) *Deduplicator {
	return &Deduplicator{registry: registry}
}

// Admit decides whether entry is reported. A new entry is registered before
// Admit returns; a seen or invalid one leaves the registry untouched, so an
// invalid entry is looked at again on the next poll.
func (d *Deduplicator) Admit(entry SlowlogEntry) (time.Time, Verdict) {
	if d.registry.Contains(entry.ID) {
		return time.Time{}, VerdictSeen
	}
	at, err := EntryTime(entry.Timestamp)
	if err != nil {
		return time.Time{}, VerdictInvalidTimestamp
	}
	d.registry.Add(entry)
	return at, VerdictNew
}

func (d *Deduplicator) Seen() int {
	return d.registry.Len()
}
