//go:build linux

// File: internal/arena/mapped_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux anonymous mappings. Regions of at least one hugepage try MAP_HUGETLB
// first and fall back to regular pages when no hugepages are reserved.

package arena

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const hugePageSize = 2 << 20

func mapRegion(size int, pinned bool) (*Region, error) {
	prot := unix.PROT_READ | unix.PROT_WRITE
	flags := unix.MAP_ANON | unix.MAP_PRIVATE

	var (
		data []byte
		err  error
		huge bool
	)
	if size >= hugePageSize {
		length := ((size + hugePageSize - 1) / hugePageSize) * hugePageSize
		data, err = unix.Mmap(-1, 0, length, prot, flags|unix.MAP_HUGETLB)
		huge = err == nil
	}
	if !huge {
		data, err = unix.Mmap(-1, 0, size, prot, flags)
		if err != nil {
			return nil, fmt.Errorf("arena: mmap %d bytes: %w", size, err)
		}
	}

	if pinned {
		if err := unix.Mlock(data); err != nil {
			_ = unix.Munmap(data)
			return nil, fmt.Errorf("arena: mlock %d bytes: %w", len(data), err)
		}
	}

	full := data
	return &Region{
		data: data[:size:size],
		huge: huge,
		release: func([]byte) error {
			if pinned {
				_ = unix.Munlock(full)
			}
			return unix.Munmap(full)
		},
	}, nil
}
