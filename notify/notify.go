/*
Package notify provides NotificationSink implementations.

All sinks are best-effort by contract: they log their own failures and
never return them, so a committed lifecycle transition can never be
rolled back or blocked by a notification problem.
*/
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// LOG SINK - Structured event log, also the fallback sink
// =============================================================================

type LogSink struct {
	Logger *logrus.Logger
}

func NewLogSink(logger *logrus.Logger) *LogSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogSink{Logger: logger}
}

func (s *LogSink) Notify(_ context.Context, n leave.Notification) {
	s.Logger.WithFields(logrus.Fields{
		"event":     n.Event,
		"request":   n.RequestID,
		"employee":  n.EmployeeID,
		"recipient": n.RecipientID,
		"payload":   n.Payload,
	}).Info("leave notification")
}

// =============================================================================
// WEBHOOK SINK - JSON POST to an external dispatcher
// =============================================================================

type WebhookSink struct {
	URL    string
	Client *http.Client
	Logger *logrus.Logger
}

func NewWebhookSink(url string, logger *logrus.Logger) *WebhookSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &WebhookSink{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
		Logger: logger,
	}
}

type webhookPayload struct {
	Event       leave.Event       `json:"event"`
	RequestID   leave.RequestID   `json:"request_id"`
	EmployeeID  leave.EmployeeID  `json:"employee_id"`
	RecipientID leave.EmployeeID  `json:"recipient_id,omitempty"`
	Payload     map[string]string `json:"payload,omitempty"`
}

func (s *WebhookSink) Notify(ctx context.Context, n leave.Notification) {
	body, err := json.Marshal(webhookPayload{
		Event:       n.Event,
		RequestID:   n.RequestID,
		EmployeeID:  n.EmployeeID,
		RecipientID: n.RecipientID,
		Payload:     n.Payload,
	})
	if err != nil {
		s.Logger.WithError(err).Error("encoding notification payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		s.Logger.WithError(err).Error("building notification request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		s.Logger.WithError(err).WithField("event", n.Event).Warn("notification dispatch failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		s.Logger.WithFields(logrus.Fields{
			"event":  n.Event,
			"status": resp.StatusCode,
		}).Warn("notification dispatcher rejected event")
	}
}

// =============================================================================
// FANOUT - Deliver to several sinks
// =============================================================================

type Fanout []leave.NotificationSink

func (f Fanout) Notify(ctx context.Context, n leave.Notification) {
	for _, s := range f {
		s.Notify(ctx, n)
	}
}
