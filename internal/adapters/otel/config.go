package otel

// Config holds OTEL exporter configuration.
type Config struct {
	Endpoint string `env:"ABEVAL_OTEL_ENDPOINT"`
	Enabled  bool   `env:"ABEVAL_OTEL_ENABLED"`
	Insecure bool   `env:"ABEVAL_OTEL_INSECURE"`
}

// Active reports whether an exporter should be built from this config.
func (c Config) Active() bool {
	return c.Enabled && c.Endpoint != ""
}
