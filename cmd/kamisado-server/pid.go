package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// pidFile holds the server's PID file open for the process lifetime
type pidFile struct {
	path   string
	file   *os.File
	locked bool
}

// managePIDFile writes the current PID to path, optionally holding an
// exclusive flock so a second server on the same path refuses to start.
// The returned cleanup releases the lock and removes the file.
func managePIDFile(path string, lock bool) (func(), error) {
	pf, err := openPIDFile(path, lock)
	if err != nil {
		return nil, err
	}
	if lock {
		if err := pf.lock(); err != nil {
			pf.file.Close()
			return nil, err
		}
	}
	if err := pf.write(os.Getpid()); err != nil {
		pf.release()
		return nil, err
	}
	return pf.release, nil
}

func openPIDFile(path string, lock bool) (*pidFile, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err == nil {
		return &pidFile{path: path, file: file}, nil
	}
	if !os.IsExist(err) {
		return nil, fmt.Errorf("cannot create PID file: %w", err)
	}

	// Leftover file from a previous run
	if lock {
		if err := checkStalePID(path); err != nil {
			return nil, err
		}
	}
	file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("cannot open PID file: %w", err)
	}
	return &pidFile{path: path, file: file}, nil
}

func (p *pidFile) lock() error {
	err := syscall.Flock(int(p.file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err == nil {
		p.locked = true
		return nil
	}
	if errors.Is(err, syscall.EWOULDBLOCK) {
		return errors.New("cannot acquire lock: another kamisado server is running")
	}
	return fmt.Errorf("lock failed: %w", err)
}

func (p *pidFile) write(pid int) error {
	if _, err := fmt.Fprintf(p.file, "%d\n", pid); err != nil {
		return fmt.Errorf("cannot write PID: %w", err)
	}
	if err := p.file.Sync(); err != nil {
		return fmt.Errorf("cannot sync PID file: %w", err)
	}
	return nil
}

func (p *pidFile) release() {
	if p.locked {
		syscall.Flock(int(p.file.Fd()), syscall.LOCK_UN)
	}
	p.file.Close()
	os.Remove(p.path)
}

// checkStalePID reports why an existing PID file blocks a locked start
func checkStalePID(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read existing PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("corrupted PID file (contains: %q)", string(data))
	}

	// FindProcess never fails on Unix; signal 0 checks existence
	proc, _ := os.FindProcess(pid)
	if err = proc.Signal(syscall.Signal(0)); err != nil {
		if errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("stale PID file found for defunct process %d", pid)
		}
		return fmt.Errorf("process %d exists but cannot verify ownership: %v", pid, err)
	}
	return fmt.Errorf("stale PID file: process %d is running but not holding lock", pid)
}
