//go:build js && wasm

package lockfile

import "os"

// WASM is single-process, so locking is a no-op.

func FlockExclusiveNonBlocking(f *os.File) error { return nil }

func FlockExclusiveBlocking(f *os.File) error { return nil }

func FlockUnlock(f *os.File) error { return nil }
