//go:build !linux

package storage

import (
	"os"
	"time"
)

func creationTime(path string) (time.Time, bool) {
	info, err := os.Lstat(path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}
