package parser

import (
	"fmt"
	"log/slog"
)

type config struct {
	maxGenerations int
	logger         *slog.Logger
	disableSkip    bool
}

func newConfig(opts []ParserOption) (*config, error) {
	c := &config{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

type ParserOption func(c *config) error

// MaxGenerations stops a parse with ErrGenerationLimit once it runs more than n generations.
// Zero means no limit.
func MaxGenerations(n int) ParserOption {
	return func(c *config) error {
		if n < 0 {
			return fmt.Errorf("the generation limit must be 0 or greater: %v", n)
		}
		c.maxGenerations = n
		return nil
	}
}

// Logger traces every generation at the debug level.
func Logger(l *slog.Logger) ParserOption {
	return func(c *config) error {
		if l == nil {
			return fmt.Errorf("the logger must not be nil")
		}
		c.logger = l
		return nil
	}
}

// DisableSkip parses as if the grammar declared no skip rules.
func DisableSkip() ParserOption {
	return func(c *config) error {
		c.disableSkip = true
		return nil
	}
}
