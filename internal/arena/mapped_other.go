//go:build !unix

// File: internal/arena/mapped_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package arena

func mapRegion(int, bool) (*Region, error) {
	return nil, ErrUnsupported
}
