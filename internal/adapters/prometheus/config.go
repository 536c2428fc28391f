package prometheus

// Config holds Pushgateway configuration.
type Config struct {
	URL     string `env:"ABEVAL_PUSHGATEWAY_URL"`
	Job     string `env:"ABEVAL_PUSHGATEWAY_JOB" envDefault:"abeval"`
	Enabled bool   `env:"ABEVAL_PUSHGATEWAY_ENABLED"`
}

// Active reports whether a pusher should be built from this config.
func (c Config) Active() bool {
	return c.Enabled && c.URL != ""
}
