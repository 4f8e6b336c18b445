package store

// ring は固定容量のリングバッファです。容量を超えて追加されると
// 最も古い要素から上書きされます（deque maxlen 相当）。
type ring[T any] struct {
	buf   []T
	start int
	size  int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

// append は要素を末尾に追加します。満杯の場合は先頭要素を捨てます。
func (r *ring[T]) append(v T) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = v
		r.size++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

// snapshot は挿入順のコピーを返します。呼び出し後の変更の影響を受けません。
func (r *ring[T]) snapshot() []T {
	out := make([]T, 0, r.size)
	for i := 0; i < r.size; i++ {
		out = append(out, r.buf[(r.start+i)%len(r.buf)])
	}
	return out
}

func (r *ring[T]) len() int { return r.size }
