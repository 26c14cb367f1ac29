package sale

const (
	Version = "v0.0.1"
)
