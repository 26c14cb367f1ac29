package operator

const (
	Version = "v0.0.1"
)
