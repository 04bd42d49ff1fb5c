// SPDX-License-Identifier: MPL-2.0

//go:build !unix && !windows

package lockfile

import "os"

// flockExclusive is a no-op on platforms without advisory lock support.
func flockExclusive(_ *os.File) error {
	return nil
}

// flockUnlock is a no-op on platforms without advisory lock support.
func flockUnlock(_ *os.File) error {
	return nil
}
