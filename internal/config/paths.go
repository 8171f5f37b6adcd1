package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".slackbridge"

// Paths holds resolved filesystem paths for slackbridge data.
type Paths struct {
	Base   string // ~/.slackbridge
	Config string // ~/.slackbridge/config.yaml
	Data   string // ~/.slackbridge/data
	Logs   string // ~/.slackbridge/logs
}

// ResolvePaths computes all standard paths from the home directory.
// If SLACKBRIDGE_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("SLACKBRIDGE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Data:   filepath.Join(base, "data"),
		Logs:   filepath.Join(base, "logs"),
	}, nil
}

// EnsureDirs creates all standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Data, p.Logs} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// SessionFile returns the path of the flat-file session store.
func (p Paths) SessionFile() string {
	return filepath.Join(p.Data, "session.json")
}

// SessionDB returns the path of the SQLite session store.
func (p Paths) SessionDB() string {
	return filepath.Join(p.Data, "session.db")
}

// LogFile returns the default log file path.
func (p Paths) LogFile() string {
	return filepath.Join(p.Logs, "slackbridge.log")
}
