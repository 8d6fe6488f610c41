// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpsd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/wneessen/waybar-tracker/internal/geo"
	"github.com/wneessen/waybar-tracker/internal/location"
	"github.com/wneessen/waybar-tracker/internal/logger"
)

const name = "gpsd"

// Provider keeps a watch on gpsd running in the background and answers location requests with
// the latest TPV report that has at least a 2D fix.
type Provider struct {
	name   string
	addr   string
	maxAge time.Duration
	period time.Duration
	log    *logger.Logger

	startOnce sync.Once
	mu        sync.RWMutex
	last      location.Fix
	haveFix   bool
}

// New returns a gpsd Provider for the given gpsd host and port. Fixes older than maxAge are
// not handed out.
func New(host, port string, maxAge time.Duration, log *logger.Logger) *Provider {
	return &Provider{
		name:   name,
		addr:   net.JoinHostPort(host, port),
		maxAge: maxAge,
		period: time.Second * 30,
		log:    log,
	}
}

// Name returns the name of the provider.
func (p *Provider) Name() string {
	return p.name
}

// Start connects to gpsd and watches the TPV stream until ctx is done. A lost connection is
// re-established after the provider period. Calling Start more than once has no effect.
func (p *Provider) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		go p.watch(ctx)
	})
}

// Locate returns the most recent fix.
func (p *Provider) Locate(context.Context) (location.Fix, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.haveFix {
		return location.Fix{}, location.ErrNoFix
	}
	if p.maxAge > 0 && time.Since(p.last.At) > p.maxAge {
		return location.Fix{}, fmt.Errorf("%w: last gpsd fix is older than %s", location.ErrNoFix, p.maxAge)
	}
	return p.last, nil
}

func (p *Provider) watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		session, err := gpsd.Dial(p.addr)
		if err != nil {
			p.log.Debug("failed to connect to gpsd", slog.String("addr", p.addr), logger.Err(err))
			if !sleepOrDone(ctx, p.period) {
				return
			}
			continue
		}

		// Install TPV filter: this gets called for every TPV report
		session.AddFilter("TPV", func(r interface{}) {
			tpv, ok := r.(*gpsd.TPVReport)
			if !ok {
				return
			}
			p.update(tpv)
		})

		// Watch() returns a channel that fires when the watch ends (e.g. connection lost).
		done := session.Watch()
		select {
		case <-ctx.Done():
			// go-gpsd has no Close(), the connection is torn down with the process.
			return
		case <-done:
			p.log.Debug("gpsd connection ended, reconnecting", slog.String("addr", p.addr))
		}

		if !sleepOrDone(ctx, p.period) {
			return
		}
	}
}

func (p *Provider) update(tpv *gpsd.TPVReport) {
	if tpv.Mode < gpsd.Mode2D {
		return
	}
	coord := geo.Coordinate{
		Lat: geo.Truncate(tpv.Lat, geo.TruncPrecision),
		Lon: geo.Truncate(tpv.Lon, geo.TruncPrecision),
	}
	if !coord.Valid() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = location.Fix{Coordinate: coord, Source: p.name, At: time.Now()}
	p.haveFix = true
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
