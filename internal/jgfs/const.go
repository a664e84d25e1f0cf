package jgfs

// Package jgfs implements the on-disk allocation and directory engine of a
// small FAT-style filesystem: binary header layout, single-level cluster
// allocation table, and the cluster-chain data model for regular files,
// directories, and symbolic links.

const (
	// SectorSize is the fixed size in bytes of every on-disk sector.
	SectorSize = 512

	// HeaderSector is the sector holding the filesystem header.
	HeaderSector = 1

	// FatEntrySize is the size in bytes of a single allocation-table entry.
	FatEntrySize = 2

	// FatEntriesPerSector is the number of FAT entries packed into one sector.
	FatEntriesPerSector = SectorSize / FatEntrySize

	// DirEntrySize is the size in bytes of one packed directory entry.
	DirEntrySize = 32

	// NameSize is the width of the name field in a directory entry,
	// including the implicit NUL terminator slot.
	NameSize = 20

	// NameLimit is the maximum number of visible characters in a name.
	NameLimit = NameSize - 1

	// Magic identifies a jgfs image.
	Magic = "JGFS"

	// VerMajor and VerMinor are the header version this package reads/writes.
	VerMajor = 2
	VerMinor = 1
)

// FAT entry sentinels. Values 0x0001..0xFFFB are next-cluster pointers.
const (
	FatFree = 0x0000
	FatLast = 0xFFFB
	FatEOF  = 0xFFFC
	FatRsvd = 0xFFFD
	FatBad  = 0xFFFE
	FatOOB  = 0xFFFF
)

// EntType identifies the kind of object a directory entry describes. Exactly
// one bit is set.
type EntType uint8

const (
	EntRegular   EntType = 1
	EntDirectory EntType = 2
	EntSymlink   EntType = 4
)

// NotAllocated is the begin-cluster sentinel for a directory entry with no
// data cluster yet (an empty regular file, or a not-yet-populated entry
// mid-construction).
const NotAllocated = FatOOB
