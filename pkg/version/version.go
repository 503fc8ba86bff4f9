package version

// Version represents the current version of carefinder
const Version = "1.2.0"

// Name is the program name shown in version strings and page titles.
const Name = "carefinder"

// BuildVersion returns the version string for display
func BuildVersion() string {
	return Name + " version " + Version
}

// APIVersion returns just the version number for API responses
func APIVersion() string {
	return Version
}
