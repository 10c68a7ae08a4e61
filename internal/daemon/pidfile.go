package daemon

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func currentPID() int {
	return os.Getpid()
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}

func removePIDFile(path string) {
	_ = os.Remove(path)
}

// ReadPIDFile parses the PID marker written by a running daemon.
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid file %s: %w", path, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("pid file %s contains invalid pid %d", path, pid)
	}
	return pid, nil
}
