package es

import "github.com/elastic/go-elasticsearch/v8"

type ClientConfig struct {
	Addresses []string
	// IndexPrefix names the two indices, <prefix>-runs and <prefix>-metrics.
	IndexPrefix string
	Username    string
	Password    string
}

const DefaultIndexPrefix = "jart-tracking"

func (c ClientConfig) runsIndex() string {
	return c.prefix() + "-runs"
}

func (c ClientConfig) metricsIndex() string {
	return c.prefix() + "-metrics"
}

func (c ClientConfig) prefix() string {
	if c.IndexPrefix == "" {
		return DefaultIndexPrefix
	}
	return c.IndexPrefix
}

func newClient(config ClientConfig) (*elasticsearch.TypedClient, error) {
	cfg := elasticsearch.Config{
		Addresses: config.Addresses,
	}

	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	return elasticsearch.NewTypedClient(cfg)
}
