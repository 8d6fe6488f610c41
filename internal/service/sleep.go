// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/wneessen/waybar-tracker/internal/logger"
)

const (
	logindInterface = "org.freedesktop.login1.Manager"
	logindMember    = "PrepareForSleep"

	resumeDebounce   = time.Second * 2
	signalBufferSize = 4

	busRetryDelay      = time.Second * 5
	networkWakeupDelay = time.Second * 10
)

// monitorSleepResume watches logind for resume events and polls the device location once the
// system is back. The system bus connection is re-established whenever it drops.
func (s *Service) monitorSleepResume(ctx context.Context) {
	var lastResume atomic.Int64
	for {
		conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
		if err == nil {
			err = s.watchResume(ctx, conn, &lastResume)
			if closeErr := conn.Close(); closeErr != nil {
				s.logger.Debug("failed to close system bus connection", logger.Err(closeErr))
			}
		}
		if err != nil {
			s.logger.Debug("sleep monitor unavailable, retrying", slog.Duration("delay", busRetryDelay),
				logger.Err(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(busRetryDelay):
		}
	}
}

// watchResume subscribes to PrepareForSleep on conn and returns when the context is done or the
// signal channel is closed.
func (s *Service) watchResume(ctx context.Context, conn *dbus.Conn, lastResume *atomic.Int64) error {
	if err := conn.AddMatchSignalContext(ctx, dbus.WithMatchInterface(logindInterface),
		dbus.WithMatchMember(logindMember)); err != nil {
		return err
	}
	signals := make(chan *dbus.Signal, signalBufferSize)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)
	s.logger.Debug("subscribed to dbus signal", slog.String("interface", logindInterface),
		slog.String("member", logindMember))

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			if isResumeSignal(sig) {
				s.handleResume(ctx, lastResume, time.Now())
			}
		}
	}
}

// isResumeSignal reports whether sig is a PrepareForSleep(false) notification.
func isResumeSignal(sig *dbus.Signal) bool {
	if sig == nil || len(sig.Body) != 1 {
		return false
	}
	sleeping, ok := sig.Body[0].(bool)
	return ok && !sleeping
}

// handleResume polls the location after a resume. Resume events within the debounce window are
// ignored.
func (s *Service) handleResume(ctx context.Context, lastResume *atomic.Int64, now time.Time) {
	previous := lastResume.Load()
	if previous != 0 && now.Sub(time.Unix(0, previous)) < resumeDebounce {
		return
	}
	lastResume.Store(now.UnixNano())

	select {
	case <-ctx.Done():
		return
	case <-time.After(networkWakeupDelay):
	}

	s.logger.Debug("resumed from sleep, polling current location")
	s.pollLocation(ctx)
}
