package config

// Default returns baseline configuration values prior to file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: "~/.local/share/sweep/logs",
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
		Watcher: Watcher{
			CreateQuietPeriod:     2,
			MoveQuietPeriod:       1,
			ReadinessProbeDelayMS: 500,
			TempSuffixes:          []string{".tmp", ".crdownload", ".part", ".download"},
		},
		History: History{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Moves:          true,
			Errors:         true,
		},
	}
}
