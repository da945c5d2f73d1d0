package version

import (
	"encoding/json"
	"os"
)

// Version is stamped at build time:
//
//	go build -ldflags "-X github.com/JustinTDCT/CineSweep/internal/version.Version=1.4.0"
var Version = ""

type Info struct {
	Version string `json:"version"`
}

// Load prefers the stamped version, then version.json at path, then "dev".
func Load(path string) Info {
	if Version != "" {
		return Info{Version: Version}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{Version: "dev"}
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil || info.Version == "" {
		return Info{Version: "dev"}
	}
	return info
}
