//go:build !linux && !windows

package guard

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// listProcesses shells out to ps, which prints the executable path of
// every process on macOS and the BSDs.
func listProcesses(ctx context.Context) ([]process, error) {
	out, err := exec.CommandContext(ctx, "ps", "-A", "-o", "pid=", "-o", "comm=").Output()
	if err != nil {
		return nil, errors.Wrap(err, "running ps")
	}
	return parsePS(out), nil
}

func parsePS(out []byte) []process {
	var procs []process
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		pidField, exe, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		pid, err := strconv.Atoi(pidField)
		if err != nil {
			continue
		}
		procs = append(procs, process{PID: pid, Exe: strings.TrimSpace(exe)})
	}
	return procs
}
