// Package faketransport provides an in-memory firmware.Transport and
// firmware.Enumerator double for exercising the upgrade pipeline without a
// real T7-family device, modeled on the simulated register map a hardware
// test double needs to back flashOp/erasePages/confirmVersion end to end.
package faketransport

import (
	"context"
	"math"
	"sync"

	"github.com/sampottinger/ljswitchboard/firmware"
)

// Flash mirrors one region's backing store: a sparse word map addressed
// the same way the real device addresses flash, plus the region's erase
// and write keys. The keys are stored but never checked: erase and write
// calls succeed whatever key was presented.
type Flash struct {
	mu       sync.Mutex
	data     map[uint32]uint32 // address -> 32-bit word, sparse
	lastKey  uint32
	eraseKey uint32
	writeKey uint32
}

// NewFlash returns a Flash pre-filled with the erase sentinel, as if every
// page had already been erased.
func NewFlash(eraseKey, writeKey uint32) *Flash {
	return &Flash{data: make(map[uint32]uint32), eraseKey: eraseKey, writeKey: writeKey}
}

func (f *Flash) read(addr uint32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[addr]; ok {
		return v
	}
	return 0xFFFFFFFF
}

func (f *Flash) write(addr, value uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[addr] = value
}

// erasePage resets every word in [addr, addr+pageWords*4) to the erase
// sentinel.
func (f *Flash) erasePage(addr uint32, pageWords uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := uint32(0); i < pageWords; i++ {
		delete(f.data, addr+i*4)
	}
}

// Device is a simulated T7-family device: two flash regions, a firmware
// version register, an upgrade-request latch, and a serial number. It
// implements firmware.Transport directly; Close marks it as disconnected
// so the driving test can simulate reboot.
type Device struct {
	mu sync.Mutex

	Serial  string
	Version float32

	Image     *Flash
	ImageInfo *Flash

	flashPointer uint32
	flashKeySeen uint32

	closed bool

	// FailNextRWMany, if non-nil, is returned once by the next RWMany call
	// and then cleared — lets tests inject a mid-write transport failure.
	FailNextRWMany error

	rebootRequested bool
}

// NewDevice returns a ready-to-use simulated device with both flash
// regions pre-erased.
func NewDevice(serial string, version float32, imageEraseKey, imageWriteKey, infoEraseKey, infoWriteKey uint32) *Device {
	return &Device{
		Serial:    serial,
		Version:   version,
		Image:     NewFlash(imageEraseKey, imageWriteKey),
		ImageInfo: NewFlash(infoEraseKey, infoWriteKey),
	}
}

const (
	regFlashPointer    = 0x0000F000
	regFlashData       = 0x0000F004
	regFlashErase      = 0x0000F008
	regFlashKey        = 0x0000F00C
	regFirmwareVersion = 0x00000004
	regUpgradeRequest  = 0x0000F100

	imageInfoBase = 0x0FFA0000
)

func (d *Device) regionFor(addr uint32) *Flash {
	if addr >= imageInfoBase {
		return d.ImageInfo
	}
	return d.Image
}

// WriteRegister implements firmware.Transport.
func (d *Device) WriteRegister(ctx context.Context, addr uint32, value uint32) error {
	_, err := d.RWMany(ctx, []firmware.RegisterOp{{Address: addr, Direction: firmware.DirectionWrite, Value: value}})
	return err
}

// ReadRegister implements firmware.Transport.
func (d *Device) ReadRegister(ctx context.Context, addr uint32) (uint32, error) {
	results, err := d.RWMany(ctx, []firmware.RegisterOp{{Address: addr, Direction: firmware.DirectionRead}})
	if err != nil {
		return 0, err
	}
	return results[0], nil
}

// RWMany implements firmware.Transport against the simulated register map.
func (d *Device) RWMany(ctx context.Context, ops []firmware.RegisterOp) ([]uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, errDisconnected
	}
	if d.FailNextRWMany != nil {
		err := d.FailNextRWMany
		d.FailNextRWMany = nil
		return nil, err
	}

	var results []uint32
	for _, op := range ops {
		switch op.Address {
		case regFlashPointer:
			if op.Direction == firmware.DirectionWrite {
				d.flashPointer = op.Value
			}
		case regFlashKey:
			if op.Direction == firmware.DirectionWrite {
				d.flashKeySeen = op.Value
			}
		case regFlashData:
			region := d.regionFor(d.flashPointer)
			if op.Direction == firmware.DirectionWrite {
				region.write(d.flashPointer, op.Value)
				d.flashPointer += 4
			} else {
				results = append(results, region.read(d.flashPointer))
				d.flashPointer += 4
			}
		case regFlashErase:
			if op.Direction == firmware.DirectionWrite {
				region := d.regionFor(op.Value)
				region.erasePage(op.Value, 16384)
			}
		case regFirmwareVersion:
			if op.Direction == firmware.DirectionRead {
				results = append(results, math.Float32bits(d.Version))
			}
		case regUpgradeRequest:
			if op.Direction == firmware.DirectionWrite {
				d.rebootRequested = true
			}
		}
	}
	return results, nil
}

// Close implements firmware.Transport. Safe to call more than once.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// RebootRequested reports whether the device has seen an upgrade-request
// write since it was created or last reset.
func (d *Device) RebootRequested() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rebootRequested
}

// Reboot simulates the device coming back up post-upgrade: it is marked
// reconnectable again and its reported version is set to newVersion. The
// contents of the image-info region are not consulted.
func (d *Device) Reboot(newVersion float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = false
	d.rebootRequested = false
	d.Version = newVersion
}

// Enumerator is an in-memory firmware.Enumerator backed by a fixed set of
// simulated devices, keyed by serial number.
type Enumerator struct {
	mu      sync.Mutex
	devices map[string]*Device
}

// NewEnumerator returns an Enumerator seeded with the given devices.
func NewEnumerator(devices ...*Device) *Enumerator {
	e := &Enumerator{devices: make(map[string]*Device)}
	for _, d := range devices {
		e.devices[d.Serial] = d
	}
	return e
}

// ListSerials implements firmware.Enumerator: it reports every seeded
// device that is not currently closed, i.e. "on the bus".
func (e *Enumerator) ListSerials(ctx context.Context, family firmware.DeviceFamily, conn firmware.ConnectionType) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var serials []string
	for serial, d := range e.devices {
		d.mu.Lock()
		visible := !d.closed
		d.mu.Unlock()
		if visible {
			serials = append(serials, serial)
		}
	}
	return serials, nil
}

// Open implements firmware.Enumerator.
func (e *Enumerator) Open(ctx context.Context, family firmware.DeviceFamily, conn firmware.ConnectionType, serial string) (firmware.Transport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.devices[serial]
	if !ok {
		return nil, errNoSuchDevice
	}
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, errNotReady
	}
	return d, nil
}

