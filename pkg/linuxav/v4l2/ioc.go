package v4l2

// Request code layout used by the Linux ioctl interface:
//
//	bits 31..30  direction
//	bits 29..16  argument size
//	bits 15..8   type (subsystem letter)
//	bits  7..0   number
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14
	iocDirBits  = 2

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocNRMask   = 1<<iocNRBits - 1
	iocTypeMask = 1<<iocTypeBits - 1
	iocSizeMask = 1<<iocSizeBits - 1
	iocDirMask  = 1<<iocDirBits - 1
)

// Direction describes which way an ioctl argument travels.
type Direction uint32

// Transfer directions.
const (
	DirNone      Direction = 0
	DirWrite     Direction = 1
	DirRead      Direction = 2
	DirReadWrite Direction = DirRead | DirWrite
)

// BaseVidiocPrivate is the first request number reserved for driver-private
// V4L2 controls.
const BaseVidiocPrivate = 192

// Opcode is an encoded ioctl request code.
type Opcode uint32

// IOC encodes a request code. Size is truncated to 14 bits.
func IOC(dir Direction, typ byte, nr uint8, size uintptr) Opcode {
	return Opcode(uint32(dir&iocDirMask)<<iocDirShift |
		uint32(size&iocSizeMask)<<iocSizeShift |
		uint32(typ)<<iocTypeShift |
		uint32(nr)<<iocNRShift)
}

// IO encodes a request without an argument.
func IO(typ byte, nr uint8) Opcode { return IOC(DirNone, typ, nr, 0) }

// IOR encodes a request whose argument is read back from the driver.
func IOR(typ byte, nr uint8, size uintptr) Opcode { return IOC(DirRead, typ, nr, size) }

// IOW encodes a request whose argument is passed to the driver.
func IOW(typ byte, nr uint8, size uintptr) Opcode { return IOC(DirWrite, typ, nr, size) }

// IOWR encodes a request whose argument is passed in and read back.
func IOWR(typ byte, nr uint8, size uintptr) Opcode { return IOC(DirReadWrite, typ, nr, size) }

// Dir returns the transfer direction.
func (o Opcode) Dir() Direction { return Direction(uint32(o)>>iocDirShift) & iocDirMask }

// Type returns the subsystem letter.
func (o Opcode) Type() byte { return byte(uint32(o) >> iocTypeShift & iocTypeMask) }

// Nr returns the request number.
func (o Opcode) Nr() uint8 { return uint8(uint32(o) >> iocNRShift & iocNRMask) }

// Size returns the encoded argument size in bytes.
func (o Opcode) Size() uintptr { return uintptr(uint32(o) >> iocSizeShift & iocSizeMask) }
