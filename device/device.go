// Package device wraps the firmware package's pipeline behind the
// thin onEvent-callback surface the rest of the device layer expects,
// fronting the orchestrator the way the wider device wrapper layer
// fronts a lower-level driver.
package device

import (
	"context"
	"sync"

	"github.com/sampottinger/ljswitchboard/device/event"
	"github.com/sampottinger/ljswitchboard/firmware"
	"github.com/sampottinger/ljswitchboard/internal/util/logging"
)

// Device wraps one open T7-family connection and exposes firmware upgrade
// as a single blocking call that fires events as it progresses, so the
// caller need not poll for status.
type Device struct {
	mu sync.Mutex

	transport firmware.Transport
	serial    string
	connType  firmware.ConnectionType
	enum      firmware.Enumerator

	onEvent func(event.Event, interface{})
}

// New wraps an already-open transport. enum is used only if UpgradeFirmware
// is called, to find the device again after it reboots.
func New(transport firmware.Transport, serial string, connType firmware.ConnectionType, enum firmware.Enumerator) *Device {
	return &Device{transport: transport, serial: serial, connType: connType, enum: enum}
}

// Identifier returns the device's serial number.
func (d *Device) Identifier() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.serial
}

// ProductName returns the fixed product family name for all devices this
// package wraps.
func (d *Device) ProductName() string {
	return string(firmware.FamilyT7)
}

// SetOnEvent registers the callback invoked for every event this device
// fires. A nil callback disables notifications.
func (d *Device) SetOnEvent(onEvent func(event.Event, interface{})) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onEvent = onEvent
}

func (d *Device) fireEvent(e event.Event, meta interface{}) {
	d.mu.Lock()
	f := d.onEvent
	d.mu.Unlock()
	if f != nil {
		f(e, meta)
	}
}

// progressBridge adapts firmware.ProgressSink onto this device's
// EventStatusChanged notifications.
type progressBridge struct {
	device *Device
}

func (p *progressBridge) Update(percent float64, done bool) {
	p.device.fireEvent(event.EventStatusChanged, &event.Status{Percent: percent, Done: done})
}

func (p *progressBridge) DisplayStatusText(text string, done bool) {
	p.device.fireEvent(event.EventStatusChanged, &event.Status{Text: text, Done: done})
}

// UpgradeFirmware runs the firmware upgrade pipeline against the wrapped
// device, firing EventStatusChanged as it progresses and exactly one of
// EventUpgradeSucceeded/EventUpgradeFailed at the end. On success, the
// device's internal transport handle is swapped for the one obtained after
// re-enumeration.
func (d *Device) UpgradeFirmware(ctx context.Context, source string, opts ...firmware.Option) error {
	log := logging.WithGroup("device").WithField("serial", d.Identifier())

	d.mu.Lock()
	transport, serial, connType, enum := d.transport, d.serial, d.connType, d.enum
	d.mu.Unlock()

	newTransport, err := firmware.UpdateFirmware(ctx, transport, serial, connType, enum, source, &progressBridge{device: d}, opts...)

	d.mu.Lock()
	if err == nil {
		d.transport = newTransport
	}
	d.mu.Unlock()

	if err != nil {
		log.WithError(err).Error("firmware upgrade failed")
		d.fireEvent(event.EventUpgradeFailed, err)
		return err
	}

	log.Debug("firmware upgrade succeeded")
	d.fireEvent(event.EventUpgradeSucceeded, nil)
	return nil
}

// Close releases the wrapped transport and fires EventGone.
func (d *Device) Close() error {
	d.mu.Lock()
	transport := d.transport
	d.mu.Unlock()
	if transport == nil {
		return nil
	}
	err := transport.Close()
	d.fireEvent(event.EventGone, nil)
	return err
}
