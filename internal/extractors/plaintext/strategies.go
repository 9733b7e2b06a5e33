// Package plaintext reads text and markdown files directly.
package plaintext

import (
	"context"
	"fmt"
	"os"

	"github.com/leaflib/curator-cli/internal/core/ports/driven"
)

// Strategies returns the plain-text chain. Direct read, no fallbacks.
func Strategies() []driven.Strategy {
	return []driven.Strategy{
		{
			Name: "direct_read",
			Run: func(_ context.Context, path string) (string, error) {
				data, err := os.ReadFile(path)
				if err != nil {
					return "", fmt.Errorf("reading file: %w", err)
				}
				return string(data), nil
			},
		},
	}
}
