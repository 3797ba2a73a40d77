package zbximport

var version = "1.0.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return version
}
