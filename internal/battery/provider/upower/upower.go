// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package upower

import (
	"context"
	"fmt"
	"path"

	"github.com/godbus/dbus/v5"

	"github.com/wneessen/waybar-tracker/internal/battery"
)

const (
	name = "upower"

	dbusDest        = "org.freedesktop.UPower"
	dbusDeviceIface = "org.freedesktop.UPower.Device"
	dbusPropGet     = "org.freedesktop.DBus.Properties.Get"
	devicePrefix    = "/org/freedesktop/UPower/devices"
	displayDevice   = "DisplayDevice"

	// UPower device states, see UPower's Device interface documentation
	stateCharging     = 1
	stateFullyCharged = 4
)

// deviceBus reads properties of UPower device objects.
type deviceBus interface {
	Property(ctx context.Context, object dbus.ObjectPath, property string) (dbus.Variant, error)
	Close() error
}

type connectFunc func(ctx context.Context) (deviceBus, error)

// Provider reads the battery state from UPower over the system bus.
type Provider struct {
	name    string
	object  dbus.ObjectPath
	connect connectFunc
}

// New returns a UPower provider for the given device name. An empty device selects the
// composite DisplayDevice.
func New(device string) *Provider {
	if device == "" {
		device = displayDevice
	}
	return &Provider{
		name:     name,
		object:   dbus.ObjectPath(path.Join(devicePrefix, device)),
		connect:  connectSystemBus,
	}
}

func (p *Provider) Name() string {
	return p.name
}

// Read fetches percentage and state of the configured UPower device.
func (p *Provider) Read(ctx context.Context) (battery.State, error) {
	bus, err := p.connect(ctx)
	if err != nil {
		return battery.State{}, err
	}
	defer func() { _ = bus.Close() }()

	present, err := bus.Property(ctx, p.object, "IsPresent")
	if err != nil {
		return battery.State{}, fmt.Errorf("failed to read UPower property IsPresent: %w", err)
	}
	if ok, _ := present.Value().(bool); !ok {
		return battery.State{}, battery.ErrNoBattery
	}

	percentage, err := bus.Property(ctx, p.object, "Percentage")
	if err != nil {
		return battery.State{}, fmt.Errorf("failed to read UPower property Percentage: %w", err)
	}
	pct, ok := percentage.Value().(float64)
	if !ok {
		return battery.State{}, fmt.Errorf("unexpected type for UPower property Percentage: %s",
			percentage.Signature())
	}

	state, err := bus.Property(ctx, p.object, "State")
	if err != nil {
		return battery.State{}, fmt.Errorf("failed to read UPower property State: %w", err)
	}
	st, ok := state.Value().(uint32)
	if !ok {
		return battery.State{}, fmt.Errorf("unexpected type for UPower property State: %s", state.Signature())
	}

	return battery.NewState(pct/100, st == stateCharging || st == stateFullyCharged), nil
}

// systemBus is a short-lived system bus connection. The battery is only sampled once per
// Read, so the connection is closed afterwards.
type systemBus struct {
	conn *dbus.Conn
}

func connectSystemBus(ctx context.Context) (deviceBus, error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	return &systemBus{conn: conn}, nil
}

func (b *systemBus) Property(ctx context.Context, object dbus.ObjectPath, property string) (dbus.Variant, error) {
	var value dbus.Variant
	obj := b.conn.Object(dbusDest, object)
	if err := obj.CallWithContext(ctx, dbusPropGet, 0, dbusDeviceIface, property).Store(&value); err != nil {
		return value, err
	}
	return value, nil
}

func (b *systemBus) Close() error {
	return b.conn.Close()
}
