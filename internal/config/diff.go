package config

// DiffResult describes what changed between two configs. Only fields that
// can be safely hot-reloaded are tracked; everything else needs a restart.
type DiffResult struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// BoostChanged is true when any boost field differs. The boost
	// interpreter is rebuilt from the new config on the next session.
	BoostChanged bool
	NewBoost     BoostConfig
}

// Any reports whether the diff contains at least one change.
func (d DiffResult) Any() bool {
	return d.LogLevelChanged || d.BoostChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) DiffResult {
	d := DiffResult{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Boost != new.Boost {
		d.BoostChanged = true
		d.NewBoost = new.Boost
	}

	return d
}
