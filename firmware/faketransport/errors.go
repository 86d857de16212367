package faketransport

import "errors"

var (
	errDisconnected = errors.New("faketransport: device is disconnected")
	errNoSuchDevice = errors.New("faketransport: no device with that serial")
	errNotReady     = errors.New("faketransport: device is not yet reconnectable")
)
