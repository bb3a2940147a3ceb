// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package indexer

import (
	"context"
	"log/slog"
	"time"
)

// RetryWithBackoff runs op until it succeeds, up to maxAttempts tries.
// The wait between tries starts at baseDelay and doubles each time.
// Returns the error from the last try when all of them fail, or the
// context error when the context ends first.
func RetryWithBackoff(ctx context.Context, op func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	delay := baseDelay
	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("recovered after retry", "attempt", attempt)
			}
			return nil
		}
		if attempt == maxAttempts {
			return lastErr
		}

		slog.Debug("retrying after failure",
			"attempt", attempt, "maxAttempts", maxAttempts, "delay", delay, "error", lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
