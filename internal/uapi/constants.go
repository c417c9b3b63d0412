// Package uapi defines YulaOS's ioctl request-encoding scheme and the
// argument/reply structs carried by its device ioctls, per spec.md §6.
//
// Grounded on go-ublk's internal/uapi package: the bit-width layout and
// shift constants below are the same _IOC_* scheme go-ublk used to talk
// to the real Linux ublk driver, generalized here from a single 'u'
// type letter to the three YulaOS recognizes ('T' TTY, 'G' GPU, 'N'
// network).
package uapi

// Ioctl request direction bits, encoded into bits 30-31 of the request
// word per spec.md §6.
const (
	DirNone  = 0
	DirWrite = 1
	DirRead  = 2
	DirBoth  = DirWrite | DirRead
)

// Bit widths and shifts for the 32-bit request word:
// dir:2 | size:14 | type:8 | nr:8.
const (
	_IOC_NRBITS   = 8
	_IOC_TYPEBITS = 8
	_IOC_SIZEBITS = 14
	_IOC_DIRBITS  = 2

	_IOC_NRSHIFT   = 0
	_IOC_TYPESHIFT = _IOC_NRSHIFT + _IOC_NRBITS
	_IOC_SIZESHIFT = _IOC_TYPESHIFT + _IOC_TYPEBITS
	_IOC_DIRSHIFT  = _IOC_SIZESHIFT + _IOC_SIZEBITS
)

// IoctlEncode packs a request word from its direction, type letter,
// number, and argument size, per spec.md §6's encoding.
func IoctlEncode(dir, typ, nr, size uint32) uint32 {
	return (dir << _IOC_DIRSHIFT) |
		(size << _IOC_SIZESHIFT) |
		(typ << _IOC_TYPESHIFT) |
		(nr << _IOC_NRSHIFT)
}

// _YOS_IO builds a request with no argument payload.
func _YOS_IO(typ, nr uint32) uint32 {
	return IoctlEncode(DirNone, typ, nr, 0)
}

// _YOS_IOR builds a read-only (kernel-to-user) request for an argument
// of the given size.
func _YOS_IOR(typ, nr, size uint32) uint32 {
	return IoctlEncode(DirRead, typ, nr, size)
}

// _YOS_IOW builds a write-only (user-to-kernel) request for an argument
// of the given size.
func _YOS_IOW(typ, nr, size uint32) uint32 {
	return IoctlEncode(DirWrite, typ, nr, size)
}

// _YOS_IOWR builds a bidirectional request for an argument of the
// given size.
func _YOS_IOWR(typ, nr, size uint32) uint32 {
	return IoctlEncode(DirBoth, typ, nr, size)
}

// Recognized ioctl type letters, per spec.md §6.
const (
	TypeTTY = 'T'
	TypeGPU = 'G'
	TypeNet = 'N'
)

// TTY ioctl numbers ('T'), covering termios, window size, scrollback,
// and session control.
const (
	ttyNrGetTermios = 1
	ttyNrSetTermios = 2
	ttyNrGetWinsize = 3
	ttyNrSetWinsize = 4
	ttyNrScroll     = 5
	ttyNrGetSession = 6
)

// GPU ioctl numbers ('G'), covering the surface lifecycle a compositor
// client drives through the device node underneath the socket protocol
// in internal/comp.
const (
	gpuNrCreateSurface = 1
	gpuNrAttachSHM     = 2
	gpuNrCommit        = 3
	gpuNrFlush         = 4
	gpuNrTransfer      = 5
)

// Network ioctl numbers ('N').
const (
	netNrGetMAC = 1
	netNrSetMAC = 2
)

// Concrete request words, built from the macros above and this
// package's struct sizes.
var (
	TCGETS   = _YOS_IOR(TypeTTY, ttyNrGetTermios, termiosSize)
	TCSETS   = _YOS_IOW(TypeTTY, ttyNrSetTermios, termiosSize)
	TIOCGWINSZ = _YOS_IOR(TypeTTY, ttyNrGetWinsize, winsizeSize)
	TIOCSWINSZ = _YOS_IOW(TypeTTY, ttyNrSetWinsize, winsizeSize)
	TIOCSCROLL = _YOS_IOW(TypeTTY, ttyNrScroll, 4)
	TIOCGSID   = _YOS_IOR(TypeTTY, ttyNrGetSession, 4)

	GPUCreateSurface = _YOS_IOWR(TypeGPU, gpuNrCreateSurface, gpuSurfaceCreateReqSize)
	GPUAttachSHM     = _YOS_IOW(TypeGPU, gpuNrAttachSHM, gpuAttachSHMReqSize)
	GPUCommit        = _YOS_IOW(TypeGPU, gpuNrCommit, gpuCommitReqSize)
	GPUFlush         = _YOS_IO(TypeGPU, gpuNrFlush)
	GPUTransfer      = _YOS_IOW(TypeGPU, gpuNrTransfer, gpuTransferReqSize)

	NetGetMAC = _YOS_IOR(TypeNet, netNrGetMAC, netMACSize)
	NetSetMAC = _YOS_IOW(TypeNet, netNrSetMAC, netMACSize)
)
