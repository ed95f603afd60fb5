package version

import (
	"fmt"
	"runtime"
)

// GitCommit and BuildDate are set by the build system through `-ldflags`.
var (
	Version   = "0.1.0"
	GitCommit string
	BuildDate string
)

type Info struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}

func ToDetailVersion() string {
	return fmt.Sprintf("version=%s git=%s build=%s go=%s", Version, GitCommit, BuildDate, runtime.Version())
}
