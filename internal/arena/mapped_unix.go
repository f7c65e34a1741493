//go:build unix && !linux

// File: internal/arena/mapped_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package arena

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func mapRegion(size int, pinned bool) (*Region, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("arena: mmap %d bytes: %w", size, err)
	}
	if pinned {
		if err := unix.Mlock(data); err != nil {
			_ = unix.Munmap(data)
			return nil, fmt.Errorf("arena: mlock %d bytes: %w", size, err)
		}
	}
	return &Region{
		data: data,
		release: func(b []byte) error {
			if pinned {
				_ = unix.Munlock(b)
			}
			return unix.Munmap(b)
		},
	}, nil
}
