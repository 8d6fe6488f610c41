// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/wneessen/waybar-tracker/internal/logger"
)

const (
	TitlePermissionDenied = "Permission Denied"
	TitleError            = "Error"

	MessageEnableLocation = "Please enable location services."
	MessageNoRoute        = "No route found."
	MessageFetchFailed    = "Failed to fetch route."

	appName          = "waybar-tracker"
	appIcon          = "mark-location"
	dbusNotifyDest   = "org.freedesktop.Notifications"
	dbusNotifyPath   = "/org/freedesktop/Notifications"
	dbusNotifyMethod = "org.freedesktop.Notifications.Notify"
)

// Alert is a user-visible message.
type Alert struct {
	Title   string
	Message string
	At      time.Time
}

// New returns an Alert stamped with the current time.
func New(title, message string) Alert {
	return Alert{Title: title, Message: message, At: time.Now()}
}

func (a Alert) String() string {
	return a.Title + ": " + a.Message
}

// Alerter delivers alerts to the user.
type Alerter interface {
	Alert(context.Context, Alert) error
}

// Log writes alerts to the logger as warnings.
type Log struct {
	logger *logger.Logger
}

func NewLog(log *logger.Logger) *Log {
	return &Log{logger: log}
}

func (l *Log) Alert(_ context.Context, alert Alert) error {
	l.logger.Warn("alert raised", slog.String("title", alert.Title), slog.String("message", alert.Message))
	return nil
}

type notifyFunc func(ctx context.Context, summary, body string, timeout time.Duration) error

// Desktop sends alerts as freedesktop desktop notifications over the session bus.
type Desktop struct {
	timeout time.Duration
	notify  notifyFunc
}

// NewDesktop returns a Desktop alerter. Notifications expire after timeout.
func NewDesktop(timeout time.Duration) *Desktop {
	return &Desktop{timeout: timeout, notify: sessionBusNotify}
}

func (d *Desktop) Alert(ctx context.Context, alert Alert) error {
	if err := d.notify(ctx, alert.Title, alert.Message, d.timeout); err != nil {
		return fmt.Errorf("failed to send desktop notification: %w", err)
	}
	return nil
}

func sessionBusNotify(ctx context.Context, summary, body string, timeout time.Duration) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer func() { _ = conn.Close() }()

	obj := conn.Object(dbusNotifyDest, dbusNotifyPath)
	call := obj.CallWithContext(ctx, dbusNotifyMethod, 0, appName, uint32(0), appIcon, summary, body,
		[]string{}, map[string]dbus.Variant{}, int32(timeout.Milliseconds()))
	return call.Err
}

// Multi fans an alert out to several alerters. All alerters are called, errors are joined.
type Multi []Alerter

func (m Multi) Alert(ctx context.Context, alert Alert) error {
	var errs []error
	for _, alerter := range m {
		if err := alerter.Alert(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
