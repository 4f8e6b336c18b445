// Package usecase はフィード取り込みのビジネスロジックを実装します。
package usecase

import (
	"sort"
	"strings"
	"sync"
)

// SymbolResolver はフィードのinstrument_idを論理シンボルへ解決します。
// マッピングはストリームのメタデータやシンボルヒントから学習し、
// 一度学習したidはセッション再接続後も上書きされません。
type SymbolResolver struct {
	mu      sync.RWMutex
	learned map[uint32]string

	primary string   // ヒント不一致時のデフォルトシンボル
	tokens  []string // ヒント照合用。長いトークン優先（MNQをNQより先に判定）
}

// NewSymbolResolver は既知シンボル集合からリゾルバを生成します。
// 先頭のシンボルがデフォルトになります。
func NewSymbolResolver(symbols []string) *SymbolResolver {
	tokens := append([]string(nil), symbols...)
	sort.Slice(tokens, func(i, j int) bool { return len(tokens[i]) > len(tokens[j]) })
	return &SymbolResolver{
		learned: make(map[uint32]string),
		primary: symbols[0],
		tokens:  tokens,
	}
}

// Resolve はinstrument_idを論理シンボルへ解決します。学習済みであれば
// その値を返し、未学習であればヒント文字列から判定して学習します。
// どのヒントにも一致しない場合はデフォルトシンボルを返し、学習しません
// （後続レコードで再評価できるようにするため）。
func (r *SymbolResolver) Resolve(id uint32, hints []string) string {
	r.mu.RLock()
	sym, ok := r.learned[id]
	r.mu.RUnlock()
	if ok {
		return sym
	}

	if sym, ok := r.match(hints); ok {
		r.learn(id, sym)
		return sym
	}
	return r.primary
}

// Learn はメタデータレコードからのマッピング学習を試みます。
// 価格を持たないレコードからもサイドチャネルとして呼び出されます。
func (r *SymbolResolver) Learn(id uint32, hints []string) bool {
	r.mu.RLock()
	_, ok := r.learned[id]
	r.mu.RUnlock()
	if ok {
		return false
	}
	sym, ok := r.match(hints)
	if !ok {
		return false
	}
	return r.learn(id, sym)
}

// Primary はデフォルトシンボルを返します。
func (r *SymbolResolver) Primary() string { return r.primary }

// Mappings は学習済みマッピングのコピーを返します。
func (r *SymbolResolver) Mappings() map[uint32]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uint32]string, len(r.learned))
	for k, v := range r.learned {
		out[k] = v
	}
	return out
}

// match はヒント文字列を優先順に走査し、最初に既知トークンを含む
// ものでシンボルを決定します。
func (r *SymbolResolver) match(hints []string) (string, bool) {
	for _, hint := range hints {
		upper := strings.ToUpper(hint)
		for _, tok := range r.tokens {
			if strings.Contains(upper, tok) {
				return tok, true
			}
		}
	}
	return "", false
}

// learn は未学習のidに限りマッピングを記録します。学習済みidは
// 決して別シンボルに再割り当てされません。
func (r *SymbolResolver) learn(id uint32, sym string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.learned[id]; ok {
		return false
	}
	r.learned[id] = sym
	return true
}
