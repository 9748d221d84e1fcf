// Copyright 2024 AI SA Assistant Project
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

package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TimeoutFunc is a unit of work that should stop when ctx is done
type TimeoutFunc func(ctx context.Context) error

// WithTimeout runs fn under a deadline. If the deadline passes first the
// caller gets a TIMEOUT ServiceError and fn's eventual result is discarded.
// A timeout of zero or less only inherits cancellation from ctx.
func WithTimeout(ctx context.Context, timeout time.Duration, logger *zap.Logger, fn TimeoutFunc) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	runCtx, cancel := context.WithCancel(ctx)
	if timeout > 0 {
		cancel()
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- fn(runCtx) }()

	select {
	case err := <-result:
		return err
	case <-runCtx.Done():
		logger.Warn("Deadline reached before work finished",
			zap.Duration("timeout", timeout),
			zap.Error(runCtx.Err()))
		return NewTimeoutError("The request took too long to complete.", runCtx.Err())
	}
}
