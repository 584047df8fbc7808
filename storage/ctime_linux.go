//go:build linux

package storage

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// creationTime prefers the statx birth time. Filesystems that do not record
// one fall back to the modification time.
func creationTime(path string) (time.Time, bool) {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME|unix.STATX_MTIME, &stx)
	if err == nil {
		if stx.Mask&unix.STATX_BTIME != 0 {
			return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)), true
		}
		if stx.Mask&unix.STATX_MTIME != 0 {
			return time.Unix(stx.Mtime.Sec, int64(stx.Mtime.Nsec)), true
		}
	}
	info, err := os.Lstat(path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}
