package disk

import (
	"fmt"
	"os"
	"runtime"
	"syscall"
	"unsafe"

	"github.com/tinyfs/jgfs/internal/fs"
)

// DefaultSectorSize is the assumed sector size for regular image files, and
// the fallback used when a block device's logical sector size cannot be
// determined.
const DefaultSectorSize = 512

// Info describes a device or image file targeted by jgfs mkfs/mount, prior
// to any jgfs-specific interpretation of its contents.
type Info struct {
	Path       string
	SectorSize int64
	Size       int64
	IsDevice   bool
	Exists     bool
}

// Probe inspects the path at devicePath, determining whether it is a block
// device or a regular file and, in either case, its size and logical sector
// size. A non-existent path is not an error: Info.Exists is false and every
// field other than Path is zero, letting callers (mkfs) decide whether to create a
// fresh image file there.
//
// Opening goes through internal/fs so that a raw Windows volume path (which
// os.Open cannot read) resolves through CreateFile/DeviceIoControl instead;
// on every other platform internal/fs.Open is a thin wrapper over os.Open.
func Probe(devicePath string) (*Info, error) {
	f, err := fs.Open(devicePath)
	if os.IsNotExist(err) {
		return &Info{Path: devicePath}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("disk: failed to open %q: %w", devicePath, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("disk: failed to stat %q: %w", devicePath, err)
	}

	info := &Info{
		Path:       devicePath,
		SectorSize: DefaultSectorSize,
		IsDevice:   st.Mode()&os.ModeDevice != 0,
		Size:       st.Size(),
		Exists:     true,
	}

	if osFile, ok := f.(*os.File); ok && info.IsDevice && runtime.GOOS == "linux" {
		if sz, err := sectorSizeLinux(osFile); err == nil {
			info.SectorSize = sz
		}
		if sz, err := deviceSizeLinux(osFile); err == nil {
			info.Size = sz
		}
	}

	return info, nil
}

// sectorSizeLinux retrieves the logical block size of a Linux block device
// via the BLKSSZGET ioctl.
func sectorSizeLinux(file *os.File) (int64, error) {
	const blkSSZGet = 0x1268
	var sectorSize uint32
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, file.Fd(), blkSSZGet, uintptr(unsafe.Pointer(&sectorSize)))
	if errno != 0 {
		return 0, fmt.Errorf("ioctl BLKSSZGET failed: %w", errno)
	}
	return int64(sectorSize), nil
}

// deviceSizeLinux retrieves the total size in bytes of a Linux block device
// via the BLKGETSIZE64 ioctl.
func deviceSizeLinux(file *os.File) (int64, error) {
	const blkGetSize64 = 0x80081272
	var size int64
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, file.Fd(), blkGetSize64, uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return 0, fmt.Errorf("ioctl BLKGETSIZE64 failed: %w", errno)
	}
	return size, nil
}
