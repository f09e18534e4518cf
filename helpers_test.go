package main

import (
	"context"
	"errors"
	"time"
)

type fakeSource struct {
	info      map[string]string
	infoErr   error
	batches   [][]interface{}
	getErr    error
	polls     int
	requested []int
}

func (f *fakeSource) Info(_ context.Context, section string) (map[string]string, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return f.info, nil
}

func (f *fakeSource) SlowlogGet(_ context.Context, num int) ([]interface{}, error) {
	f.requested = append(f.requested, num)
	if f.getErr != nil {
		return nil, f.getErr
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	i := f.polls
	if i >= len(f.batches) {
		i = len(f.batches) - 1
	}
	f.polls++
	return f.batches[i], nil
}

type recordingReporter struct {
	entries []SlowlogEntry
	times   []time.Time
	err     error
}

func (r *recordingReporter) Emit(_ context.Context, entry SlowlogEntry, at time.Time) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	r.times = append(r.times, at)
	return nil
}

func (r *recordingReporter) ids() []uint64 {
	ids := make([]uint64, 0, len(r.entries))
	for _, e := range r.entries {
		ids = append(ids, e.ID)
	}
	return ids
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func tokens(cmd ...string) []interface{} {
	out := make([]interface{}, len(cmd))
	for i, c := range cmd {
		out[i] = c
	}
	return out
}

func legacyRecord(id, ts, micros int64, cmd ...string) []interface{} {
	return []interface{}{id, ts, micros, tokens(cmd...)}
}

func extendedRecord(id, ts, micros int64, addr, name string, cmd ...string) []interface{} {
	return []interface{}{id, ts, micros, tokens(cmd...), addr, name}
}
