package constants

// Version is the engine release version, shown by the version command.
const Version = "v0.1.0"
