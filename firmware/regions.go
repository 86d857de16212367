package firmware

// Family/device constants for the T7 product line. A real deployment would
// source these from the device family's datasheet; the values here are
// concrete illustrative constants.
const (
	// FamilyT7 is the Enumerator family name used for all T7-family
	// devices, regardless of hardware revision.
	FamilyT7 DeviceFamily = "T7"

	// magicT7 is the expected Header.HeaderCode for a T7-family image.
	magicT7 uint32 = 0x00A17001
)

// allowedDeviceTypes enumerates the IntendedDevice values this upgrader
// will accept: the base T7 and the T7-Pro.
var allowedDeviceTypes = map[uint32]bool{
	7: true, // T7
	8: true, // T7-Pro
}

// regionDescriptor is a compile-time constant description of one flash
// region: its base address, erase granularity, and the permission key and
// register pair used to access it.
type regionDescriptor struct {
	name          string
	baseAddress   uint32
	pageCount     int
	pageWords     uint32 // words per page, used for erase address arithmetic
	eraseKey      uint32
	writeKey      uint32
	pointerReg    uint32
	dataReg       uint32
	eraseReg      uint32 // register that accepts (key, address) pairs to erase one page
	lengthWords   uint32 // total addressable length of the region, in 32-bit words
}

// Register addresses shared across regions.
const (
	regFlashPointer = 0x0000F000
	regFlashData    = 0x0000F004
	regFlashErase   = 0x0000F008
	regFlashKey     = 0x0000F00C

	regFirmwareVersion  = 0x00000004
	regUpgradeRequest   = 0x0000F100
	upgradeRequestValue = 0xBFC0102C
)

// imageRegion describes the flash region holding the firmware payload.
var imageRegion = regionDescriptor{
	name:        "image",
	baseAddress: 0x00000000,
	pageCount:   512,
	pageWords:   16384, // 64KiB pages, 4 bytes/word
	eraseKey:    0x4C4A0001,
	writeKey:    0x4C4A0002,
	pointerReg:  regFlashPointer,
	dataReg:     regFlashData,
	eraseReg:    regFlashErase,
	lengthWords: 512 * 16384,
}

// imageInfoRegion describes the flash region holding the 128-byte image
// header/metadata.
var imageInfoRegion = regionDescriptor{
	name:        "image-info",
	baseAddress: 0x0FFA0000,
	pageCount:   8,
	pageWords:   16384,
	eraseKey:    0x4C4A0003,
	writeKey:    0x4C4A0004,
	pointerReg:  regFlashPointer,
	dataReg:     regFlashData,
	eraseReg:    regFlashErase,
	lengthWords: 8 * 16384,
}
