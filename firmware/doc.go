// Package firmware drives the T7-family firmware upgrade flash protocol: it
// parses a firmware image, validates it against the target device, erases
// and rewrites the device's external flash, and supervises the device
// through the reboot/re-enumeration cycle until the new firmware is
// confirmed running.
//
// Callers that merely want to kick off an upgrade and watch progress should
// use UpdateFirmware; everything else in this package is the machinery it
// sequences.
package firmware
