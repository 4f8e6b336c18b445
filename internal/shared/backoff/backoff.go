// Package backoff は再接続までの待機戦略を提供します。
package backoff

import (
	"context"
	"time"
)

// DefaultInterval は再接続リトライの既定間隔です。
const DefaultInterval = 5 * time.Second

// Fixed は一定間隔で待機する戦略です。指数的増加やジッタは行いません。
type Fixed struct {
	interval time.Duration
}

// NewFixed は指定間隔のFixedを生成します。0以下の場合は既定値を使います。
func NewFixed(interval time.Duration) *Fixed {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Fixed{interval: interval}
}

// Wait は間隔が経過するかcontextがキャンセルされるまでブロックします。
// キャンセル時はcontextのエラーを返します。
func (f *Fixed) Wait(ctx context.Context) error {
	t := time.NewTimer(f.interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
