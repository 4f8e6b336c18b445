package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"

	"futures_backend/internal/feature/feed/adapters/gateway/dto"
	"futures_backend/internal/feature/feed/domain/entity"
	"futures_backend/internal/feature/feed/usecase"
)

// Client はマーケットデータゲートウェイへのDialer実装です。
type Client struct {
	cfg Config
}

// ClientがDialerを実装していることをコンパイル時に検証します。
var _ usecase.Dialer = (*Client)(nil)

// NewClient は指定された設定でClientの新しいインスタンスを生成します。
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// Subscription は設定から購読リクエストを組み立てます。
func (c *Client) Subscription() entity.Subscription {
	return entity.Subscription{
		Dataset:    c.cfg.Dataset,
		Schema:     c.cfg.Schema,
		Symbols:    c.cfg.Symbols,
		SymbolType: c.cfg.SymbolType,
	}
}

// Dial はゲートウェイへTCP接続し、認証行を送信してセッションを返します。
// 認証情報が未設定の場合は恒久的エラーを返します。
func (c *Client) Dial(ctx context.Context) (usecase.Session, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("FEED_API_KEY: %w", usecase.ErrMissingCredential)
	}

	d := net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", c.cfg.Addr, err)
	}

	if err := json.NewEncoder(conn).Encode(dto.AuthRequest{Key: c.cfg.APIKey}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send auth: %w", err)
	}

	return &session{conn: conn, scanner: bufio.NewScanner(conn)}, nil
}

// session は1本のゲートウェイ接続上のレコードストリームです。
type session struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

// Subscribe は購読リクエストを1行のJSONとして送信します。
func (s *session) Subscribe(ctx context.Context, sub entity.Subscription) error {
	req := dto.SubscribeRequest{
		Action:     "subscribe",
		Dataset:    sub.Dataset,
		Schema:     sub.Schema,
		Symbols:    sub.Symbols,
		SymbolType: sub.SymbolType,
	}
	if err := json.NewEncoder(s.conn).Encode(req); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}
	return nil
}

// Next は次のデコード可能なレコードを返します。JSONとして解釈できない
// 行はレコード単位の異常として読み飛ばします。ストリーム終端や読み取り
// エラーはトランスポート障害として返します。
func (s *session) Next(ctx context.Context) (entity.Record, error) {
	for s.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return entity.Record{}, err
		}
		var w dto.Record
		if err := json.Unmarshal(s.scanner.Bytes(), &w); err != nil {
			continue
		}
		return toEntity(w), nil
	}
	if err := s.scanner.Err(); err != nil {
		return entity.Record{}, err
	}
	return entity.Record{}, io.EOF
}

func (s *session) Close() error {
	return s.conn.Close()
}

// toEntity はワイヤ表現をドメインレコードへ変換します。
// シンボルヒントは原典の優先順（stype_in_symbol, pretty, raw）を保ちます。
func toEntity(w dto.Record) entity.Record {
	rec := entity.Record{
		InstrumentID: w.InstrumentID,
		TradePrice:   w.Price,
		Size:         w.Size,
	}
	if len(w.Levels) > 0 {
		rec.BidPrice = w.Levels[0].BidPx
		rec.AskPrice = w.Levels[0].AskPx
	}
	for _, hint := range []string{w.StypeInSymbol, w.PrettySymbol, w.RawSymbol} {
		if hint != "" {
			rec.SymbolHints = append(rec.SymbolHints, hint)
		}
	}
	return rec
}
