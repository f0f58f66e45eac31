package types

import "time"

// HTTPConfig holds shared HTTP settings for outbound provider requests.
type HTTPConfig struct {
	// Timeout bounds a single request attempt, not the whole call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with requests
	// (e.g. "newsclient/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ClientConfig holds the settings the CLI reads from its config file,
// environment and flags before building a news client.
type ClientConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is the provider credential. It is never written back out.
	APIKey string `json:"-" yaml:"-"`

	// BaseURL is the provider endpoint (default https://newsapi.org/v2).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// MaxRetries is the number of retries after the first attempt on
	// transport failures and 5xx responses (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// JournalPath, when set, enables the SQLite attempt journal at this path.
	JournalPath string `json:"journal,omitempty" yaml:"journal,omitempty"`
}
