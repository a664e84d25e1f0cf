// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package disk

import (
	"encoding/binary"
	"fmt"
)

// MBRPartition identifies the type byte of an MBR partition table entry.
type MBRPartition uint8

const (
	PartitionTypeEmpty MBRPartition = 0x00
	PartitionTypeGPT   MBRPartition = 0xEE
)

// MBRPartitionEntry is a single 16-byte entry in the MBR's partition table.
type MBRPartitionEntry struct {
	BootIndicator uint8
	StartCHS      [3]byte
	PartitionType MBRPartition
	EndCHS        [3]byte
	StartLBA      [4]byte
	TotalSectors  [4]byte
}

func (p *MBRPartitionEntry) ReadStartLBA() uint32 {
	return binary.LittleEndian.Uint32(p.StartLBA[:])
}

func (p *MBRPartitionEntry) ReadTotalSectors() uint32 {
	return binary.LittleEndian.Uint32(p.TotalSectors[:])
}

// MBR is the Master Boot Record of a disk image, used here only as a
// pre-flight safety check before mkfs overwrites a device.
type MBR struct {
	BootCode         [440]byte
	DiskSignature    [4]byte
	Reserved         [2]byte
	PartitionEntries [4]MBRPartitionEntry
	Signature        [2]byte
}

func (m *MBR) ReadSignature() uint16 {
	return binary.LittleEndian.Uint16(m.Signature[:])
}

// HasPartitions reports whether any of the four MBR slots describes a
// real (non-empty) partition.
func (m *MBR) HasPartitions() bool {
	for _, p := range m.PartitionEntries {
		if p.PartitionType != PartitionTypeEmpty {
			return true
		}
	}
	return false
}

// ParseMBR parses a 512-byte slice into an MBR struct. It returns an error
// if the slice is the wrong size or the trailing 0xAA55 signature is
// absent; callers use that failure to conclude the sector is not an MBR at
// all, which is the expected case for a freshly created jgfs image.
func ParseMBR(data []byte) (*MBR, error) {
	const mbrSize = 512
	const signatureOffset = 0x1FE

	if len(data) != mbrSize {
		return nil, fmt.Errorf("disk: mbr data must be %d bytes, got %d", mbrSize, len(data))
	}

	var mbr MBR
	copy(mbr.BootCode[:], data[0x000:0x1B8])
	copy(mbr.DiskSignature[:], data[0x1B8:0x1BC])
	copy(mbr.Reserved[:], data[0x1BC:0x1BE])

	for i := 0; i < 4; i++ {
		off := 0x1BE + i*16
		entry := data[off : off+16]
		mbr.PartitionEntries[i].BootIndicator = entry[0x00]
		copy(mbr.PartitionEntries[i].StartCHS[:], entry[0x01:0x04])
		mbr.PartitionEntries[i].PartitionType = MBRPartition(entry[0x04])
		copy(mbr.PartitionEntries[i].EndCHS[:], entry[0x05:0x08])
		copy(mbr.PartitionEntries[i].StartLBA[:], entry[0x08:0x0C])
		copy(mbr.PartitionEntries[i].TotalSectors[:], entry[0x0C:0x10])
	}

	copy(mbr.Signature[:], data[signatureOffset:signatureOffset+2])

	if mbr.ReadSignature() != 0xAA55 {
		return nil, fmt.Errorf("disk: invalid mbr signature: 0x%04X", mbr.ReadSignature())
	}
	return &mbr, nil
}
