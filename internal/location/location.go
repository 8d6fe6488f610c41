// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package location defines the contract for on-demand device location lookups and a chain that
// asks several providers in order.
package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/waybar-tracker/internal/geo"
)

var (
	// ErrPermissionDenied is returned when the platform refuses access to the device location.
	ErrPermissionDenied = errors.New("location access denied")

	// ErrNoFix is returned when a provider has no current position to offer.
	ErrNoFix = errors.New("no location fix available")
)

// Provider returns the current device location on demand.
type Provider interface {
	Name() string
	Locate(ctx context.Context) (Fix, error)
}

// Starter is implemented by providers that need a background routine (e.g. a stream
// subscription) before Locate can answer.
type Starter interface {
	Start(ctx context.Context)
}

// Fix is a located coordinate and where it came from.
type Fix struct {
	geo.Coordinate
	Source string
	At     time.Time
}

// Chain asks its providers in order and returns the first successful fix.
type Chain struct {
	providers []Provider
}

// NewChain returns a Chain for the given providers.
func NewChain(providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, errors.New("no location providers enabled")
	}
	return &Chain{providers: providers}, nil
}

func (c *Chain) Name() string {
	return "chain"
}

// Start starts all providers that implement Starter.
func (c *Chain) Start(ctx context.Context) {
	for _, p := range c.providers {
		if s, ok := p.(Starter); ok {
			s.Start(ctx)
		}
	}
}

// Locate returns the fix of the first provider that succeeds. If all providers fail, the joined
// errors are returned so callers can check for ErrPermissionDenied with errors.Is.
func (c *Chain) Locate(ctx context.Context) (Fix, error) {
	var errs []error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return Fix{}, err
		}
		fix, err := p.Locate(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if err = fix.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if fix.Source == "" {
			fix.Source = p.Name()
		}
		if fix.At.IsZero() {
			fix.At = time.Now()
		}
		return fix, nil
	}
	return Fix{}, errors.Join(errs...)
}
