package config

type Config struct {
	API     API     `yaml:"api" validate:"required"`
	Storage Storage `yaml:"storage" validate:"required"`
}

type API struct {
	BaseURL string `yaml:"base_url" comment:"API Base URL" validate:"required,httporhttps"`
	Env     string `yaml:"env" comment:"Client Environment (development/production)" validate:"required"`

	// TimeoutSeconds bounds every request; a timeout is treated like any
	// other network failure.
	TimeoutSeconds int `yaml:"timeout_seconds" comment:"Request timeout in seconds" validate:"required,min=1"`

	// RequestsPerSecond throttles outgoing calls client-side so bursts of
	// mutations don't trip the server's rate limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second" comment:"Client-side request rate limit" validate:"required"`
	Burst             int     `yaml:"burst" comment:"Client-side request burst" validate:"required,min=1"`

	// MinFeedItems pads a short first feed page by merging in posts from
	// the public listing. Leave at 0 outside development.
	MinFeedItems int `yaml:"min_feed_items" comment:"Pad first feed page up to this many items (0 = off)"`
}

type Storage struct {
	RedisURL string `yaml:"redis_url" comment:"Redis URL for the persisted client store" validate:"required"`
}
