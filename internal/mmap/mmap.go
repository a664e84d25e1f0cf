package mmap

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

// msync flushes dirty pages of b to their backing file via the msync(2)
// syscall. The stdlib syscall package has no Msync wrapper, so this calls
// through raw Syscall with MS_SYNC, the same way BLKSSZGET/BLKGETSIZE64 are
// invoked elsewhere in this codebase where no wrapper exists either.
func msync(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	const msSync = 0x4
	_, _, errno := syscall.Syscall(
		syscall.SYS_MSYNC,
		uintptr(unsafe.Pointer(&b[0])),
		uintptr(len(b)),
		uintptr(msSync),
	)
	if errno != 0 {
		return errno
	}
	return nil
}

// MmapFile represents a memory-mapped, writable file region backed by a
// device or regular file. Pages written through Data are carried through to
// the backing file only once Sync (or Close) is called.
type MmapFile struct {
	Data         []byte   // The memory-mapped byte slice
	File         *os.File // The underlying opened file
	FileSize     int      // Total size of the underlying file
	MappedOffset int      // The starting offset of the mapped region within the file
	MappedLength int      // The length of the mapped region
}

func NewMmapFile(
	filePath string,
) (*MmapFile, error) {
	return NewMmapFileRegion(filePath, 0, 0)
}

// NewMmapFileRegion creates a new read-write memory-mapped region from a
// file or raw device.
//
// filePath: The path to the file or raw disk device (e.g., "/dev/sda").
// offset:   The starting byte offset within the file to map. Must be page-aligned.
// length:   The number of bytes to map from the file, starting at `offset`.
//
//	If `length` is 0, the mapping will extend from `offset` to the end of the file.
//
// If mapping a raw disk device, ensure the path is correct and the program has root privileges.
func NewMmapFileRegion(
	filePath string,
	offset int,
	length int,
) (*MmapFile, error) {
	// Open the file/device for read-write: the core mutates the image in place.
	f, err := os.OpenFile(filePath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", filePath, err)
	}

	// Get file/device size
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to get file info for %q: %w", filePath, err)
	}
	fileSize := int(fi.Size())

	if fileSize == 0 {
		f.Close()
		return nil, fmt.Errorf("file %q is empty, cannot mmap", filePath)
	}

	// Validate offset and length
	if offset < 0 {
		f.Close()
		return nil, fmt.Errorf("offset cannot be negative: %d", offset)
	}
	if offset >= fileSize {
		f.Close()
		return nil, fmt.Errorf("offset %d is beyond file size %d", offset, fileSize)
	}

	// If length is 0, map from offset to the end of the file
	actualMappedLength := length
	if length == 0 {
		actualMappedLength = fileSize - offset
	}

	if offset+actualMappedLength > fileSize {
		f.Close()
		return nil, fmt.Errorf("requested mapping (offset %d + length %d) extends beyond file size %d", offset, actualMappedLength, fileSize)
	}
	if actualMappedLength <= 0 {
		f.Close()
		return nil, fmt.Errorf("calculated mapped length is zero or negative: %d", actualMappedLength)
	}

	// Ensure offset is page-aligned for mmap.
	// syscall.Getpagesize() returns the system's memory page size.
	pageSize := syscall.Getpagesize()
	if offset%pageSize != 0 {
		f.Close()
		return nil, fmt.Errorf("offset %d is not page-aligned (page size: %d)", offset, pageSize)
	}

	// Perform the mmap operation
	// PROT_READ|PROT_WRITE: pages may be read and written in place.
	// MAP_SHARED: writes are visible to other mappers of the same file and
	//             are carried through to the backing file on msync/munmap.
	data, err := syscall.Mmap(
		int(f.Fd()),                          // File descriptor
		int64(offset),                        // Offset within the file to start mapping
		actualMappedLength,                   // Length of the mapping
		syscall.PROT_READ|syscall.PROT_WRITE, // Read-write protection
		syscall.MAP_SHARED,                   // Shared mapping
	)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to mmap file %q at offset %d with length %d: %w", filePath, offset, actualMappedLength, err)
	}

	return &MmapFile{
		Data:         data,
		File:         f,
		FileSize:     fileSize,
		MappedOffset: offset,
		MappedLength: actualMappedLength,
	}, nil
}

// Sync flushes dirty pages of the mapping to the backing file via msync,
// then fsyncs the file descriptor so the write reaches stable storage.
func (mr *MmapFile) Sync() error {
	if mr.Data == nil {
		return nil
	}
	if err := msync(mr.Data); err != nil {
		return fmt.Errorf("failed to msync: %w", err)
	}
	if mr.File != nil {
		if err := mr.File.Sync(); err != nil {
			return fmt.Errorf("failed to fsync: %w", err)
		}
	}
	return nil
}

// Close syncs, unmaps the memory region, and closes the underlying file.
// It is idempotent.
func (mr *MmapFile) Close() error {
	syncErr := mr.Sync()

	var err error
	if mr.Data != nil {
		err = syscall.Munmap(mr.Data)
		mr.Data = nil
	}

	var closeErr error
	if mr.File != nil {
		closeErr = mr.File.Close()
		mr.File = nil
	}

	switch {
	case syncErr != nil:
		return syncErr
	case err != nil:
		return fmt.Errorf("failed to munmap: %w", err)
	case closeErr != nil:
		return fmt.Errorf("failed to close file: %w", closeErr)
	}
	return nil
}
