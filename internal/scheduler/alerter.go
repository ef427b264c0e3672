package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimatum/internal/domain"
	"github.com/hamed0406/uptimatum/internal/notify"
	"github.com/hamed0406/uptimatum/internal/recorder"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
}

// Alerter sends a notification when an endpoint's recorded status changes.
// Alerts for down/degraded transitions are rate limited per endpoint by
// Cooldown; recoveries bypass the cooldown.
type Alerter struct {
	notifier notify.Notifier
	cfg      AlerterConfig
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	lastSent map[domain.EndpointID]time.Time
}

func NewAlerter(n notify.Notifier, cfg AlerterConfig, logger *zap.Logger) *Alerter {
	if n == nil {
		n = notify.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Alerter{
		notifier: n,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		lastSent: make(map[domain.EndpointID]time.Time),
	}
}

// Observe inspects one write outcome and sends an alert if it recorded a
// transition. It reports whether a message was sent.
func (a *Alerter) Observe(ctx context.Context, ep domain.Endpoint, out recorder.Outcome) bool {
	if !out.Transition() {
		return false
	}
	recovered := out.Record.Status == domain.StatusUp
	if recovered && !a.cfg.AlertOnRecovery {
		return false
	}

	now := a.now()
	a.mu.Lock()
	if !recovered {
		if last, ok := a.lastSent[ep.ID]; ok && now.Sub(last) < a.cfg.Cooldown {
			a.mu.Unlock()
			a.logger.Debug("alert_suppressed",
				zap.Int64("endpoint_id", int64(ep.ID)),
				zap.String("status", string(out.Record.Status)),
			)
			return false
		}
	}
	prev, hadPrev := a.lastSent[ep.ID]
	a.lastSent[ep.ID] = now
	a.mu.Unlock()

	msg := message(ep, out)
	if err := a.notifier.Send(ctx, msg); err != nil {
		// A failed send must not start the cooldown.
		a.mu.Lock()
		if a.lastSent[ep.ID].Equal(now) {
			if hadPrev {
				a.lastSent[ep.ID] = prev
			} else {
				delete(a.lastSent, ep.ID)
			}
		}
		a.mu.Unlock()
		a.logger.Warn("alert_send_error",
			zap.Int64("endpoint_id", int64(ep.ID)),
			zap.Error(err),
		)
		return false
	}
	a.logger.Info("alert_sent",
		zap.Int64("endpoint_id", int64(ep.ID)),
		zap.String("from", string(out.Previous.Status)),
		zap.String("to", string(out.Record.Status)),
	)
	return true
}

func message(ep domain.Endpoint, out recorder.Outcome) notify.Message {
	rec := out.Record
	title := fmt.Sprintf("%s is %s", ep.Name, strings.ToUpper(string(rec.Status)))
	if rec.Status == domain.StatusUp {
		title = fmt.Sprintf("%s RECOVERED", ep.Name)
	}

	httpTxt := "n/a"
	if rec.StatusCode != nil {
		httpTxt = fmt.Sprintf("%d", *rec.StatusCode)
	}
	latencyTxt := "n/a"
	if rec.ResponseTimeMS != nil {
		latencyTxt = fmt.Sprintf("%d ms", *rec.ResponseTimeMS)
	}
	reason := ""
	if rec.Error != nil {
		reason = *rec.Error
	}

	text := fmt.Sprintf(
		"URL: %s\nWas: %s\nHTTP: %s\nLatency: %s\nReason: %s\nChecked: %s",
		ep.URL, out.Previous.Status, httpTxt, latencyTxt, reason, rec.CheckedAt.Format(time.RFC3339),
	)
	return notify.Message{Title: title, Text: text, Resolved: rec.Status == domain.StatusUp}
}
