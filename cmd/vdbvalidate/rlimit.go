package main

import (
	"fmt"
	"syscall"
)

// raiseRlimit raises the open-file-descriptor limit to its hard ceiling: a
// validator walking a wide column store opens many blob and index files
// per table.
func raiseRlimit() error {
	var rlimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rlimit); err != nil {
		return fmt.Errorf("Getrlimit: %w", err)
	}

	rlimit.Cur = rlimit.Max
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rlimit); err != nil {
		return fmt.Errorf("Setrlimit: %w", err)
	}

	return nil
}
