package uapi

// ncc is the length of Termios.Cc, the control-character array.
const ncc = 19

// termiosSize is Termios's wire size: 4 uint32 fields + Line byte +
// ncc control-character bytes, unpadded.
const termiosSize = 4*4 + 1 + ncc

// Termios mirrors the TTY line-discipline settings exposed by 'T'
// ioctls, per spec.md §6.
type Termios struct {
	Iflag uint32
	Oflag uint32
	Cflag uint32
	Lflag uint32
	Line  uint8
	Cc    [ncc]byte
}

// winsizeSize is Winsize's wire size: 4 uint16 fields.
const winsizeSize = 4 * 2

// Winsize mirrors a TTY's character and pixel dimensions.
type Winsize struct {
	Row    uint16
	Col    uint16
	XPixel uint16
	YPixel uint16
}

// shmNameLen bounds the null-terminated shared-memory object name
// carried in GPUAttachSHMReq, matching the vfs node name limit from
// §2.1 (≤31 chars, rounded up to a 32-byte field with room for the
// terminator and alignment).
const shmNameLen = 32

// gpuSurfaceCreateReqSize is GPUSurfaceCreateReq's wire size: five
// uint32 fields.
const gpuSurfaceCreateReqSize = 4 * 5

// GPUSurfaceCreateReq requests a new compositor-backed surface of the
// given dimensions and pixel format from the GPU device node. The
// reply overwrites this same struct in place (bidirectional ioctl):
// SurfaceID and Stride are filled in by the kernel.
type GPUSurfaceCreateReq struct {
	Width  uint32
	Height uint32
	Format uint32

	SurfaceID uint32
	Stride    uint32
}

// gpuAttachSHMReqSize is GPUAttachSHMReq's wire size: SurfaceID +
// ShmNameLen + the fixed name buffer.
const gpuAttachSHMReqSize = 4 + 4 + shmNameLen

// GPUAttachSHMReq binds a previously created surface to a named shared
// memory segment, the ioctl-level analogue of comp_ipc.h's
// ATTACH_SHM_NAME message handled in internal/comp.
type GPUAttachSHMReq struct {
	SurfaceID  uint32
	ShmNameLen uint32
	ShmName    [shmNameLen]byte
}

// gpuCommitReqSize is GPUCommitReq's wire size: SurfaceID + 4 int32
// geometry fields + Flags.
const gpuCommitReqSize = 4 + 4*4 + 4

// GPUCommitReq commits a damaged rectangle of a surface for the
// compositor to pick up on its next repaint pass.
type GPUCommitReq struct {
	SurfaceID uint32
	X, Y      int32
	W, H      int32
	Flags     uint32
}

// gpuTransferReqSize is GPUTransferReq's wire size: three uint32
// fields.
const gpuTransferReqSize = 4 * 3

// GPUTransferReq copies Len bytes starting at Offset within the
// surface's backing SHM segment, used for partial updates that don't
// warrant remapping the whole region.
type GPUTransferReq struct {
	SurfaceID uint32
	Offset    uint32
	Len       uint32
}

// netMACSize is the wire size of a 6-byte hardware address.
const netMACSize = 6

// NetMAC carries a network interface's hardware address for the 'N'
// GET/SET MAC ioctls.
type NetMAC struct {
	Addr [6]byte
}
