package pdkit

// Version is set via -ldflags at release build time.
var Version = "dev"
