package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	feedentity "futures_backend/internal/feature/feed/domain/entity"
	marketentity "futures_backend/internal/feature/market/domain/entity"
)

// ErrMissingCredential はフィード認証情報が未設定であることを示します。
// このエラーは恒久的で、再接続リトライの対象になりません。
var ErrMissingCredential = errors.New("feed credential is not configured")

// Session は接続済みのフィードセッションを抽象化します。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type Session interface {
	// Subscribe は構成済みのシンボル集合とスキーマを購読します。
	Subscribe(ctx context.Context, sub feedentity.Subscription) error
	// Next は次のデコード済みレコードを返します。トランスポート障害時は
	// エラーを返し、以後このセッションは使用できません。
	Next(ctx context.Context) (feedentity.Record, error)
	Close() error
}

// Dialer はトランスポートへの新規セッション確立を抽象化します。
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

// StateWriter は受理済み観測値と接続状態の書き込み先を抽象化します。
type StateWriter interface {
	Apply(obs marketentity.Observation)
	SetConnected(connected bool, err error)
}

// Waiter は再接続までの待機戦略を抽象化します。
type Waiter interface {
	Wait(ctx context.Context) error
}

// Supervisor は接続→購読→消費→（障害時）待機→再接続のループを
// プロセスの生存期間にわたって実行します。学習済みのinstrument
// マッピングは再接続をまたいで保持されます。
type Supervisor struct {
	dialer   Dialer
	resolver *SymbolResolver
	filter   *RecordFilter
	state    StateWriter
	sub      feedentity.Subscription
	backoff  Waiter
	logger   *slog.Logger
	now      func() time.Time
}

// NewSupervisor は新しいSupervisorを生成します。
func NewSupervisor(dialer Dialer, resolver *SymbolResolver, filter *RecordFilter,
	state StateWriter, sub feedentity.Subscription, backoff Waiter, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		dialer:   dialer,
		resolver: resolver,
		filter:   filter,
		state:    state,
		sub:      sub,
		backoff:  backoff,
		logger:   logger,
		now:      time.Now,
	}
}

// Run はフィードループを実行します。contextのキャンセルまたは恒久的
// エラー（認証情報未設定）まで戻りません。ワーカー専用ゴルーチンで
// 呼び出すことを想定しています。
func (s *Supervisor) Run(ctx context.Context) {
	for {
		err := s.runSession(ctx)
		if errors.Is(err, ErrMissingCredential) {
			// 恒久的エラー: 接続は二度と試みず、HTTP側は稼働を続ける
			s.state.SetConnected(false, err)
			s.logger.Error("feed worker stopped", "error", err)
			return
		}
		if err != nil {
			s.state.SetConnected(false, err)
			s.logger.Warn("feed session ended, reconnecting", "error", err)
		}
		if ctx.Err() != nil {
			return
		}
		if err := s.backoff.Wait(ctx); err != nil {
			return
		}
	}
}

// runSession は1セッション分の接続・購読・消費を行います。
// トランスポート障害で戻り、レコード単位の異常では戻りません。
func (s *Supervisor) runSession(ctx context.Context) error {
	sess, err := s.dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("dial feed gateway: %w", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			s.logger.Warn("failed to close feed session", "error", err)
		}
	}()

	if err := sess.Subscribe(ctx, s.sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	s.state.SetConnected(true, nil)
	s.logger.Info("feed subscribed",
		"dataset", s.sub.Dataset, "schema", s.sub.Schema, "symbols", s.sub.Symbols)

	for {
		rec, err := sess.Next(ctx)
		if err != nil {
			return fmt.Errorf("read record: %w", err)
		}
		s.process(rec)
	}
}

// process は1レコードを処理します。不正レコードは黙って読み飛ばし、
// 消費を継続します。
func (s *Supervisor) process(rec feedentity.Record) {
	// 価格の有無に関わらず、メタデータからのマッピング学習を先に試みる
	if rec.InstrumentID != nil && len(rec.SymbolHints) > 0 {
		if s.resolver.Learn(*rec.InstrumentID, rec.SymbolHints) {
			s.logger.Info("instrument mapped",
				"instrument_id", *rec.InstrumentID,
				"symbol", s.resolver.Resolve(*rec.InstrumentID, nil))
		}
	}

	if !rec.HasMarketData() {
		return
	}

	sym := s.resolver.Primary()
	if rec.InstrumentID != nil {
		sym = s.resolver.Resolve(*rec.InstrumentID, rec.SymbolHints)
	}

	obs, ok := s.filter.Extract(sym, rec)
	if !ok {
		return
	}
	obs.EventTime = s.now()
	s.state.Apply(obs)
}
