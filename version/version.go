package version

// Version is the current release of leadbase.
const Version = "0.2.0"
