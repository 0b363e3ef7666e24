package buildinfo

// Set via -ldflags at build time, e.g.
//
//	-X 'github.com/m3rciful/schoolbot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/m3rciful/schoolbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/schoolbot/core/buildinfo.Date=2025-11-02T09:00:00Z'
var (
	// Version is the release tag of the binary.
	Version = "dev"
	// Commit is the VCS revision the binary was built from.
	Commit = "local"
	// Date is the RFC3339 build timestamp.
	Date = ""
)

// String renders a one-line build description for CLI output.
func String() string {
	s := Version + " (" + Commit
	if Date != "" {
		s += ", " + Date
	}
	return s + ")"
}
