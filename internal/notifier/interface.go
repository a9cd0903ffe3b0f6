package notifier

import "context"

// Config holds notifier configuration
type Config struct {
	Type   string         `mapstructure:"type"`
	Params map[string]any `mapstructure:"params"`
}

// Notifier delivers rendered alert text to one channel.
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Init initializes the notifier with configuration
	Init(cfg Config) error

	// Send delivers a single message
	Send(ctx context.Context, text string) error
}

// StringParam reads a string parameter, returning "" when absent.
func (c Config) StringParam(key string) string {
	if v, ok := c.Params[key].(string); ok {
		return v
	}
	return ""
}

// StringMapParam reads a map of strings, accepting the map[string]any shape
// viper produces for nested YAML.
func (c Config) StringMapParam(key string) map[string]string {
	switch v := c.Params[key].(type) {
	case map[string]string:
		return v
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, val := range v {
			if s, ok := val.(string); ok {
				out[k] = s
			}
		}
		return out
	default:
		return nil
	}
}
