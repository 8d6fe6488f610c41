// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package sysfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wneessen/waybar-tracker/internal/battery"
)

const (
	name        = "sysfs"
	powerSupply = "/sys/class/power_supply"
)

// Provider reads the battery state from the kernel's power_supply class.
type Provider struct {
	name   string
	root   string
	device string
}

// New returns a sysfs provider. An empty device selects the first power supply of type Battery.
func New(device string) *Provider {
	return &Provider{
		name:   name,
		root:   powerSupply,
		device: device,
	}
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Read(ctx context.Context) (battery.State, error) {
	if err := ctx.Err(); err != nil {
		return battery.State{}, err
	}

	device := p.device
	if device == "" {
		var err error
		if device, err = p.findBattery(); err != nil {
			return battery.State{}, err
		}
	}
	dir := filepath.Join(p.root, device)

	capacity, err := readValue(filepath.Join(dir, "capacity"))
	if err != nil {
		return battery.State{}, err
	}
	level, err := strconv.ParseFloat(capacity, 64)
	if err != nil {
		return battery.State{}, fmt.Errorf("failed to parse battery capacity %q: %w", capacity, err)
	}

	status, err := readValue(filepath.Join(dir, "status"))
	if err != nil {
		return battery.State{}, err
	}
	charging := strings.EqualFold(status, "charging") || strings.EqualFold(status, "full")

	return battery.NewState(level/100, charging), nil
}

func (p *Provider) findBattery() (string, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return "", fmt.Errorf("failed to list power supplies: %w", err)
	}
	for _, entry := range entries {
		kind, err := readValue(filepath.Join(p.root, entry.Name(), "type"))
		if err != nil {
			continue
		}
		if strings.EqualFold(kind, "battery") {
			return entry.Name(), nil
		}
	}
	return "", battery.ErrNoBattery
}

func readValue(file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", file, err)
	}
	return strings.TrimSpace(string(data)), nil
}
