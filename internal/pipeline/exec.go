package pipeline

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// runShell runs a project-declared command through `sh -c` in dir. The
// command's own exit status is authoritative; stdout and stderr are
// captured together for the run record.
func runShell(ctx context.Context, dir, command string, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return out.String(), err
}
