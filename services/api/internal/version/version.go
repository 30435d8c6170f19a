package version

// Name identifies the service in logs and traces.
const Name = "albumd-api"

// Version is overridden at build time via -ldflags.
var Version = "dev"
