// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package battery

import (
	"context"
	"errors"
	"fmt"
)

const (
	StatusCharging    = "Charging"
	StatusNotCharging = "Not Charging"
)

// ErrNoBattery is returned by providers if the system has no battery to report on.
var ErrNoBattery = errors.New("no battery present")

// Provider reads the current battery state once.
type Provider interface {
	Name() string
	Read(context.Context) (State, error)
}

// State is a single battery sample.
type State struct {
	// Percentage is the charge level between 0 and 100
	Percentage float64
	IsCharging bool
}

// NewState returns a State for a charge level given as fraction between 0.0 and 1.0.
func NewState(fraction float64, charging bool) State {
	switch {
	case fraction < 0:
		fraction = 0
	case fraction > 1:
		fraction = 1
	}
	return State{Percentage: fraction * 100, IsCharging: charging}
}

// Level returns the charge level as whole percent, e.g. "50%".
func (s State) Level() string {
	return fmt.Sprintf("%.0f%%", s.Percentage)
}

// Status returns the human readable charging status.
func (s State) Status() string {
	if s.IsCharging {
		return StatusCharging
	}
	return StatusNotCharging
}

// Icon returns a nerd font battery glyph matching level and charging status.
func (s State) Icon() string {
	if s.IsCharging {
		return "󰂄"
	}
	icons := []string{"󰂎", "󰁺", "󰁻", "󰁼", "󰁽", "󰁾", "󰁿", "󰂀", "󰂁", "󰂂", "󰁹"}
	idx := int(s.Percentage / 10)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(icons) {
		idx = len(icons) - 1
	}
	return icons[idx]
}
