package guard

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/procfs"
)

// procMount is the procfs mount point read by listProcesses.
var procMount = procfs.DefaultMountPoint

func listProcesses(ctx context.Context) ([]process, error) {
	fs, err := procfs.NewFS(procMount)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", procMount)
	}
	procs, err := fs.AllProcs()
	if err != nil {
		return nil, errors.Wrap(err, "reading process table")
	}

	out := make([]process, 0, len(procs))
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// A process can exit between AllProcs and here.
		comm, err := p.Comm()
		if err != nil {
			continue
		}
		exe, _ := p.Executable()
		args, _ := p.CmdLine()
		out = append(out, process{PID: p.PID, Comm: comm, Exe: exe, Args: args})
	}
	return out, nil
}
