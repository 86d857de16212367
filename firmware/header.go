package firmware

import (
	"encoding/binary"
	"math"
)

// headerSize is the fixed size, in bytes, of the image header at the start
// of every firmware image file. Bytes [headerSize:] are the image payload.
const headerSize = 128

// Byte offsets of the named header fields. Every multi-byte field is
// big-endian.
const (
	offHeaderCode              = 0
	offIntendedDevice          = 4
	offContainedVersion        = 8
	offRequiredUpgraderVersion = 12
	offImageNumber             = 16
	offNumImagesInFile         = 18
	offStartOfNextImage        = 20
	offLengthOfImage           = 24
	offImageOffset             = 28
	offShaByteCount            = 32
	offOptions                 = 72
)

// Header is the parsed, caller-friendly form of the 128-byte image header.
// Floats are decoded from their big-endian IEEE-754 bit patterns and
// truncated to four decimal places.
type Header struct {
	HeaderCode              uint32
	IntendedDevice          uint32
	ContainedVersion        float64
	RequiredUpgraderVersion float64
	ImageNumber             uint16
	NumImagesInFile         uint16
	StartOfNextImage        uint32
	LengthOfImage           uint32
	ImageOffset             uint32
	ShaByteCount            uint32
	Options                 uint32
}

// truncate4 truncates a float64 to four decimal places, as required when
// comparing ContainedVersion/RequiredUpgraderVersion fields.
func truncate4(f float64) float64 {
	return math.Trunc(f*10000) / 10000
}

// parseHeader decodes the first headerSize bytes of data at their fixed
// offsets into the caller-facing Header representation.
func parseHeader(data []byte) (Header, error) {
	if len(data) < headerSize {
		return Header{}, ErrInvalidImage
	}
	be := binary.BigEndian

	containedBits := be.Uint32(data[offContainedVersion : offContainedVersion+4])
	requiredBits := be.Uint32(data[offRequiredUpgraderVersion : offRequiredUpgraderVersion+4])

	return Header{
		HeaderCode:              be.Uint32(data[offHeaderCode : offHeaderCode+4]),
		IntendedDevice:          be.Uint32(data[offIntendedDevice : offIntendedDevice+4]),
		ContainedVersion:        truncate4(float64(math.Float32frombits(containedBits))),
		RequiredUpgraderVersion: truncate4(float64(math.Float32frombits(requiredBits))),
		ImageNumber:             be.Uint16(data[offImageNumber : offImageNumber+2]),
		NumImagesInFile:         be.Uint16(data[offNumImagesInFile : offNumImagesInFile+2]),
		StartOfNextImage:        be.Uint32(data[offStartOfNextImage : offStartOfNextImage+4]),
		LengthOfImage:           be.Uint32(data[offLengthOfImage : offLengthOfImage+4]),
		ImageOffset:             be.Uint32(data[offImageOffset : offImageOffset+4]),
		ShaByteCount:            be.Uint32(data[offShaByteCount : offShaByteCount+4]),
		Options:                 be.Uint32(data[offOptions : offOptions+4]),
	}, nil
}

// encodeHeader re-serializes a Header back into its 128-byte wire form, the
// inverse of parseHeader. Used by writeImageInfo to reprogram the
// image-info region with the header taken from the loaded image.
func encodeHeader(h Header) []byte {
	buf := make([]byte, headerSize)
	be := binary.BigEndian
	be.PutUint32(buf[offHeaderCode:], h.HeaderCode)
	be.PutUint32(buf[offIntendedDevice:], h.IntendedDevice)
	be.PutUint32(buf[offContainedVersion:], math.Float32bits(float32(h.ContainedVersion)))
	be.PutUint32(buf[offRequiredUpgraderVersion:], math.Float32bits(float32(h.RequiredUpgraderVersion)))
	be.PutUint16(buf[offImageNumber:], h.ImageNumber)
	be.PutUint16(buf[offNumImagesInFile:], h.NumImagesInFile)
	be.PutUint32(buf[offStartOfNextImage:], h.StartOfNextImage)
	be.PutUint32(buf[offLengthOfImage:], h.LengthOfImage)
	be.PutUint32(buf[offImageOffset:], h.ImageOffset)
	be.PutUint32(buf[offShaByteCount:], h.ShaByteCount)
	be.PutUint32(buf[offOptions:], h.Options)
	return buf
}
