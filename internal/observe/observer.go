// Package observe reports per-message outcomes for operational visibility.
// The processor only depends on the Observer interface; how an outcome is
// surfaced (log line, metric, counter) is an implementation choice.
package observe

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"dealgram/internal/domain"
)

// Observer receives every terminal outcome and every unresolvable link.
type Observer interface {
	MessageOutcome(ev domain.MessageEvent, out domain.Outcome)
	LinkUnresolved(ev domain.MessageEvent, url string)
}

// LogObserver writes outcomes as structured log lines.
type LogObserver struct {
	log logrus.FieldLogger
}

// NewLogObserver creates a logging observer.
func NewLogObserver(logger logrus.FieldLogger) *LogObserver {
	return &LogObserver{log: logger.WithField("component", "observer")}
}

func (o *LogObserver) MessageOutcome(ev domain.MessageEvent, out domain.Outcome) {
	log := o.log.WithFields(logrus.Fields{
		"channel_id": ev.ChannelID,
		"message_id": ev.MessageID,
		"status":     string(out.Status),
		"reason":     out.Reason,
		"rewritten":  out.Rewritten,
		"unresolved": out.Unresolved,
	})
	switch out.Status {
	case domain.StatusFailed:
		log.WithError(out.Err).Error("Message forwarding failed")
	case domain.StatusSent:
		log.Info("Message forwarded")
	default:
		log.Debug("Message skipped")
	}
}

func (o *LogObserver) LinkUnresolved(ev domain.MessageEvent, url string) {
	o.log.WithFields(logrus.Fields{
		"channel_id": ev.ChannelID,
		"message_id": ev.MessageID,
		"url":        url,
	}).Warn("Link left unmodified")
}

// Stats keeps running totals for the /status endpoint.
type Stats struct {
	processed  atomic.Int64
	forwarded  atomic.Int64
	failed     atomic.Int64
	unresolved atomic.Int64
}

// NewStats creates a zeroed Stats observer.
func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) MessageOutcome(ev domain.MessageEvent, out domain.Outcome) {
	s.processed.Add(1)
	switch out.Status {
	case domain.StatusSent:
		s.forwarded.Add(1)
	case domain.StatusFailed:
		s.failed.Add(1)
	}
}

func (s *Stats) LinkUnresolved(ev domain.MessageEvent, url string) {
	s.unresolved.Add(1)
}

func (s *Stats) Processed() int64  { return s.processed.Load() }
func (s *Stats) Forwarded() int64  { return s.forwarded.Load() }
func (s *Stats) Failed() int64     { return s.failed.Load() }
func (s *Stats) Unresolved() int64 { return s.unresolved.Load() }

// Multi fans one outcome out to several observers.
type Multi []Observer

func (m Multi) MessageOutcome(ev domain.MessageEvent, out domain.Outcome) {
	for _, o := range m {
		o.MessageOutcome(ev, out)
	}
}

func (m Multi) LinkUnresolved(ev domain.MessageEvent, url string) {
	for _, o := range m {
		o.LinkUnresolved(ev, url)
	}
}
