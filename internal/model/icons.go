package model

// Centralized icons for engine status lines
// Using simple single-width characters for consistent terminal rendering
const (
	IconChange  = "~" // File change detected
	IconBuild   = "▶" // Build starting
	IconOK      = "✓" // Build spawned / exited cleanly
	IconFailed  = "✗" // Build, kill or watcher failure
	IconStopped = "■" // Build exited with an error or was killed
	IconInfo    = "•" // Anything else
)
