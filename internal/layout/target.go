package layout

import "slices"

// Target describes the ABI target triple and its pointer properties.
type Target struct {
	Triple     string // e.g. "x86_64-linux-gnu"
	PtrSize    int    // bytes
	PtrAlign   int    // bytes
	I64Align   int    // bytes; 4 on i686 System V
	DataLayout string
}

func X86_64LinuxGNU() Target {
	return Target{
		Triple:     "x86_64-linux-gnu",
		PtrSize:    8,
		PtrAlign:   8,
		I64Align:   8,
		DataLayout: "e-m:e-p270:32:32-p271:32:32-p272:64:64-i64:64-f80:128-n8:16:32:64-S128",
	}
}

func I686LinuxGNU() Target {
	return Target{
		Triple:     "i686-linux-gnu",
		PtrSize:    4,
		PtrAlign:   4,
		I64Align:   4,
		DataLayout: "e-m:e-p:32:32-p270:32:32-p271:32:32-p272:64:64-i128:128-f64:32:64-f80:32-n8:16:32-S128",
	}
}

var targets = []Target{X86_64LinuxGNU(), I686LinuxGNU()}

// TargetByTriple finds a supported target. An empty triple selects x86_64.
func TargetByTriple(triple string) (Target, bool) {
	if triple == "" {
		return targets[0], true
	}
	i := slices.IndexFunc(targets, func(t Target) bool { return t.Triple == triple })
	if i < 0 {
		return Target{}, false
	}
	return targets[i], true
}

// Triples lists the supported target triples.
func Triples() []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		out = append(out, t.Triple)
	}
	return out
}
