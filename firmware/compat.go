package firmware

// Check validates that bundle's header is compatible with the target T7
// device family before any flash operation is attempted. It checks three
// independent predicates in order (magic, device type, version) and
// reports only the first one that fails.
func Check(bundle *Bundle) (*Bundle, error) {
	if bundle.Header.HeaderCode != magicT7 {
		return nil, &IncompatibleError{Reason: "header magic", Err: ErrIncompatibleMagic}
	}
	if !allowedDeviceTypes[bundle.Header.IntendedDevice] {
		return nil, &IncompatibleError{Reason: "intended device", Err: ErrIncompatibleDevice}
	}
	if bundle.Header.ContainedVersion != truncate4(bundle.FirmwareVersion) {
		return nil, &IncompatibleError{Reason: "declared version", Err: ErrIncompatibleVersion}
	}
	return bundle, nil
}
