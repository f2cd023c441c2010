// Package startcop implements the per-process "start cop" named in §5:
// a single running instance of the application, with later invocations
// forwarding their command-line arguments to the first instance instead
// of starting a second one (§6.5 exit code 0 for "second instance
// deferred to first"). Grounded on the flock-based advisory lock pattern
// used for concurrent-writer safety elsewhere in the retrieval pack
// (other_examples' posix-files storage layer's lockFile helper), built
// on golang.org/x/sys/unix rather than raw syscall so the non-blocking
// LOCK_EX|LOCK_NB probe is portable across the unix targets Go supports.
//
// No IPC framework (gRPC, D-Bus, named pipes with a protocol) appears
// anywhere in the retrieval pack, so argument forwarding is done with a
// deliberately simple polled file-drop: a second instance appends its
// arguments to a drop file next to the lock and exits; the first
// instance polls the drop file on an interval and dispatches whatever it
// finds. This is a documented simplification of "forwards new
// command-line arguments to the existing instance" — not a production
// IPC design.
package startcop

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// Cop guards single-instance startup for one user data directory.
type Cop struct {
	lockPath string
	dropPath string
	lockFile *os.File
}

// New returns a Cop rooted at userDataDir, where it keeps its lock file
// and argument drop file.
func New(userDataDir string) *Cop {
	return &Cop{
		lockPath: filepath.Join(userDataDir, "fernanda.lock"),
		dropPath: filepath.Join(userDataDir, "fernanda.args"),
	}
}

// Acquire attempts to become the primary instance. ok is true if this
// process now holds the lock and should proceed to start normally; ok is
// false if another instance already holds it, in which case the caller
// should call Forward and exit 0 per §6.5.
func (c *Cop) Acquire() (ok bool, err error) {
	if dir := filepath.Dir(c.lockPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("startcop: create lock directory: %w", err)
		}
	}

	f, err := os.OpenFile(c.lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return false, fmt.Errorf("startcop: open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return false, nil
		}
		return false, fmt.Errorf("startcop: flock: %w", err)
	}

	c.lockFile = f
	return true, nil
}

// Release gives up the lock. Safe to call on a Cop that never acquired
// it.
func (c *Cop) Release() error {
	if c.lockFile == nil {
		return nil
	}
	err := unix.Flock(int(c.lockFile.Fd()), unix.LOCK_UN)
	c.lockFile.Close()
	c.lockFile = nil
	return err
}

// Forward appends args (one per line) to the drop file for the primary
// instance to pick up, called by a secondary instance after Acquire
// returns false.
func (c *Cop) Forward(args []string) error {
	if dir := filepath.Dir(c.dropPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("startcop: create drop directory: %w", err)
		}
	}

	f, err := os.OpenFile(c.dropPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("startcop: open drop file: %w", err)
	}
	defer f.Close()

	for _, a := range args {
		if strings.ContainsAny(a, "\n") {
			continue
		}
		if _, err := fmt.Fprintln(f, a); err != nil {
			return fmt.Errorf("startcop: write drop file: %w", err)
		}
	}
	return nil
}

// Drain reads and clears any pending forwarded argument lines, one
// invocation's worth of args per line grouping is not preserved — each
// line is one argument, in the order forwarded instances wrote them.
// Returns nil, nil if nothing is pending.
func (c *Cop) Drain() ([]string, error) {
	f, err := os.Open(c.dropPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("startcop: open drop file: %w", err)
	}

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	f.Close()
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if err := os.Truncate(c.dropPath, 0); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("startcop: truncate drop file: %w", err)
	}
	return lines, nil
}

// Watch polls Drain every interval until stop is closed, calling onArgs
// with whatever non-empty batch of forwarded arguments it finds. Meant
// to run in its own goroutine for the lifetime of the primary instance.
func (c *Cop) Watch(interval time.Duration, stop <-chan struct{}, onArgs func([]string)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			args, err := c.Drain()
			if err != nil || len(args) == 0 {
				continue
			}
			onArgs(args)
		}
	}
}
