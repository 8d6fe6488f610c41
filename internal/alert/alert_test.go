// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package alert

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/waybar-tracker/internal/logger"
)

func TestNew(t *testing.T) {
	alert := New(TitleError, MessageNoRoute)
	if alert.At.IsZero() {
		t.Error("expected alert time to be set")
	}
	if alert.String() != "Error: No route found." {
		t.Errorf("unexpected alert string: %s", alert)
	}
}

func TestLog_Alert(t *testing.T) {
	buffer := bytes.NewBuffer(nil)
	alerter := NewLog(logger.NewLogger(slog.LevelDebug, buffer))
	if err := alerter.Alert(t.Context(), New(TitlePermissionDenied, MessageEnableLocation)); err != nil {
		t.Fatalf("failed to raise alert: %s", err)
	}
	if !strings.Contains(buffer.String(), `title="Permission Denied"`) {
		t.Errorf("expected log to contain the alert title, got: %s", buffer.String())
	}
	if !strings.Contains(buffer.String(), "level=WARN") {
		t.Errorf("expected alert to be logged as warning, got: %s", buffer.String())
	}
}

func TestDesktop_Alert(t *testing.T) {
	t.Run("notification is sent", func(t *testing.T) {
		var gotSummary, gotBody string
		var gotTimeout time.Duration
		alerter := NewDesktop(time.Second * 5)
		alerter.notify = func(_ context.Context, summary, body string, timeout time.Duration) error {
			gotSummary, gotBody, gotTimeout = summary, body, timeout
			return nil
		}
		if err := alerter.Alert(t.Context(), New(TitleError, MessageFetchFailed)); err != nil {
			t.Fatalf("failed to raise alert: %s", err)
		}
		if gotSummary != TitleError || gotBody != MessageFetchFailed {
			t.Errorf("unexpected notification: %s / %s", gotSummary, gotBody)
		}
		if gotTimeout != time.Second*5 {
			t.Errorf("expected timeout to be 5s, got %s", gotTimeout)
		}
	})
	t.Run("notification failure is returned", func(t *testing.T) {
		alerter := NewDesktop(time.Second)
		alerter.notify = func(context.Context, string, string, time.Duration) error {
			return errors.New("intentionally failing")
		}
		if err := alerter.Alert(t.Context(), New(TitleError, MessageFetchFailed)); err == nil {
			t.Error("expected alert to fail")
		}
	})
}

func TestMulti_Alert(t *testing.T) {
	var calls int
	ok := alerterFunc(func(context.Context, Alert) error { calls++; return nil })
	failing := alerterFunc(func(context.Context, Alert) error { calls++; return errors.New("intentionally failing") })

	multi := Multi{failing, ok, ok}
	if err := multi.Alert(t.Context(), New(TitleError, MessageNoRoute)); err == nil {
		t.Error("expected multi alert to return the failure")
	}
	if calls != 3 {
		t.Errorf("expected all 3 alerters to be called, got %d", calls)
	}
}

type alerterFunc func(context.Context, Alert) error

func (f alerterFunc) Alert(ctx context.Context, a Alert) error {
	return f(ctx, a)
}
