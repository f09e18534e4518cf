package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// PollSettings fixes the cadence of the monitor.
type PollSettings struct {
	Interval       time.Duration
	BatchSize      int
	IgnoreCommands []string
}

func DefaultPollSettings() PollSettings {
	return PollSettings{
		Interval:       5000 * time.Millisecond,
		BatchSize:      100,
		IgnoreCommands: []string{"SLOWLOG", "INFO"},
	}
}

// PollStats summarizes a single poll.
type PollStats struct {
	Fetched          int
	Reported         int
	Ignored          int
	Duplicates       int
	InvalidTimestamp int
}

// Monitor polls the slowlog and reports every entry id once. It runs on a
// single goroutine; nothing in it is safe for concurrent use.
type Monitor struct {
	source   SlowlogSource
	schema   Schema
	settings PollSettings
	filter   *IgnoreFilter
	dedup    *Deduplicator
	reporter Reporter
	sinks    []Reporter
	digest   *LLMClient
	metrics  *Metrics
	log      *logrus.Entry
}

type MonitorOption func(*Monitor)

// WithSinks adds best-effort reporters. Their failures are logged only.
func WithSinks(sinks ...Reporter) MonitorOption {
	return func(m *Monitor) { m.sinks = append(m.sinks, sinks...) }
}

// WithDigest feeds reported entries to digest and gives it a chance to
// write a digest after every poll.
func WithDigest(digest *LLMClient) MonitorOption {
	return func(m *Monitor) {
		m.digest = digest
		m.sinks = append(m.sinks, digest)
	}
}

func WithMetrics(metrics *Metrics) MonitorOption {
	return func(m *Monitor) { m.metrics = metrics }
}

func WithLogger(log *logrus.Entry) MonitorOption {
	return func(m *Monitor) { m.log = log }
}

func NewMonitor(source SlowlogSource, version *Version, registry *SeenRegistry, reporter Reporter, settings PollSettings, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		source:   source,
		schema:   SchemaFor(version),
		settings: settings,
		filter:   NewIgnoreFilter(settings.IgnoreCommands),
		dedup:    NewDeduplicator(registry),
		reporter: reporter,
		log:      logrus.NewEntry(Logger),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Monitor) Schema() Schema {
	return m.schema
}

// PollOnce fetches the most recent batch and reports the entries not seen
// before, in server order. Any returned error is fatal for the monitor.
func (m *Monitor) PollOnce(ctx context.Context) (PollStats, error) {
	var stats PollStats
	records, err := m.source.SlowlogGet(ctx, m.settings.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("failed to fetch slowlog: %w", err)
	}
	stats.Fetched = len(records)

	for i, raw := range records {
		entry, err := DecodeSlowlog(raw, m.schema)
		if err != nil {
			return stats, fmt.Errorf("record %d of batch: %w", i, err)
		}
		if !m.filter.ShouldReport(entry) {
			stats.Ignored++
			continue
		}
		at, verdict := m.dedup.Admit(entry)
		switch verdict {
		case VerdictSeen:
			stats.Duplicates++
			continue
		case VerdictInvalidTimestamp:
			stats.InvalidTimestamp++
			m.log.WithFields(logrus.Fields{
				"slowlogId": entry.ID,
				"timestamp": entry.Timestamp,
			}).Debug("Skipping slowlog entry with invalid timestamp")
			continue
		}

		if err := m.reporter.Emit(ctx, entry, at); err != nil {
			return stats, err
		}
		stats.Reported++
		for _, sink := range m.sinks {
			if err := sink.Emit(ctx, entry, at); err != nil {
				m.log.WithError(err).Error("Slowlog sink failed")
			}
		}
	}

	if m.digest != nil {
		if _, err := m.digest.GenerateDigest(ctx); err != nil {
			m.log.WithError(err).Error("Slowlog digest failed")
		}
	}
	m.observe(stats)
	return stats, nil
}

func (m *Monitor) observe(stats PollStats) {
	m.log.WithFields(logrus.Fields{
		"fetched":          stats.Fetched,
		"reported":         stats.Reported,
		"ignored":          stats.Ignored,
		"duplicates":       stats.Duplicates,
		"invalidTimestamp": stats.InvalidTimestamp,
		"seen":             m.dedup.Seen(),
	}).Debug("Poll complete")
	if m.metrics == nil {
		return
	}
	m.metrics.PollsTotal.Inc()
	m.metrics.ReportedTotal.Add(float64(stats.Reported))
	m.metrics.IgnoredTotal.Add(float64(stats.Ignored))
	m.metrics.DuplicateTotal.Add(float64(stats.Duplicates))
	m.metrics.InvalidTimestampTotal.Add(float64(stats.InvalidTimestamp))
	m.metrics.SeenRegistrySize.Set(float64(m.dedup.Seen()))
}

// Run polls until a poll fails or ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := m.PollOnce(ctx); err != nil {
			return err
		}
		timer := time.NewTimer(m.settings.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
