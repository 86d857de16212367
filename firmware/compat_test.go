package firmware

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAcceptsCompatibleBundle(t *testing.T) {
	bundle := &Bundle{
		Header: Header{
			HeaderCode:     magicT7,
			IntendedDevice: 7,
		},
		FirmwareVersion: 1.0203,
	}
	bundle.Header.ContainedVersion = truncate4(1.0203)

	got, err := Check(bundle)
	require.NoError(t, err)
	assert.Same(t, bundle, got)
}

func TestCheckRejectsWrongMagic(t *testing.T) {
	bundle := &Bundle{
		Header: Header{HeaderCode: 0xDEADBEEF, IntendedDevice: 7, ContainedVersion: 1.0},
		FirmwareVersion: 1.0,
	}
	_, err := Check(bundle)
	var incompat *IncompatibleError
	require.ErrorAs(t, err, &incompat)
	assert.True(t, errors.Is(err, ErrIncompatibleMagic))
}

func TestCheckRejectsUnknownDeviceType(t *testing.T) {
	bundle := &Bundle{
		Header: Header{HeaderCode: magicT7, IntendedDevice: 99, ContainedVersion: 1.0},
		FirmwareVersion: 1.0,
	}
	_, err := Check(bundle)
	assert.True(t, errors.Is(err, ErrIncompatibleDevice))
}

func TestCheckRejectsVersionMismatch(t *testing.T) {
	bundle := &Bundle{
		Header:          Header{HeaderCode: magicT7, IntendedDevice: 7, ContainedVersion: 1.0203},
		FirmwareVersion: 1.0204,
	}
	_, err := Check(bundle)
	assert.True(t, errors.Is(err, ErrIncompatibleVersion))
}
