package core

type VersionInfo struct {
	Version  string `json:"version"`
	Revision string `json:"revision"`
	Build    string `json:"build"`
}

// Version is reported by /api/version and the Server header. main overrides it
// with values injected at link time.
var Version = VersionInfo{Version: "dev"}

func SetVersion(version, revision, build string) {
	if version == "" {
		version = "dev"
	}
	Version = VersionInfo{
		Version:  version,
		Revision: revision,
		Build:    build,
	}
}
