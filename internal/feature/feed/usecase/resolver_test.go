package usecase_test

import (
	"reflect"
	"testing"

	"futures_backend/internal/feature/feed/usecase"
)

// TestSymbolResolver_Resolve はヒントからの解決とマッピング学習を検証します。
func TestSymbolResolver_Resolve(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		id       uint32
		hints    []string
		expected string
	}{
		{
			name:     "NQ contract hint",
			id:       1,
			hints:    []string{"NQZ5"},
			expected: "NQ",
		},
		{
			name:     "MNQ contract hint matches MNQ, not NQ",
			id:       2,
			hints:    []string{"MNQZ5"},
			expected: "MNQ",
		},
		{
			name:     "first matching hint wins",
			id:       3,
			hints:    []string{"", "MNQH6", "NQH6"},
			expected: "MNQ",
		},
		{
			name:     "lowercase hint",
			id:       4,
			hints:    []string{"mnqz5"},
			expected: "MNQ",
		},
		{
			name:     "no match falls back to primary",
			id:       5,
			hints:    []string{"ESZ5"},
			expected: "NQ",
		},
		{
			name:     "no hints falls back to primary",
			id:       6,
			hints:    nil,
			expected: "NQ",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := usecase.NewSymbolResolver([]string{"NQ", "MNQ"})
			if got := r.Resolve(tc.id, tc.hints); got != tc.expected {
				t.Errorf("Resolve(%d, %v) = %q, want %q", tc.id, tc.hints, got, tc.expected)
			}
		})
	}
}

// TestSymbolResolver_StickyMapping は一度学習したidが別のヒントでも
// 再割り当てされないことを検証します。
func TestSymbolResolver_StickyMapping(t *testing.T) {
	t.Parallel()

	r := usecase.NewSymbolResolver([]string{"NQ", "MNQ"})

	if got := r.Resolve(42, []string{"NQZ5"}); got != "NQ" {
		t.Fatalf("initial resolve: got %q, want NQ", got)
	}
	// 矛盾するヒントを与えても学習済みマッピングが優先される
	if got := r.Resolve(42, []string{"MNQZ5"}); got != "NQ" {
		t.Errorf("mapping not sticky: got %q, want NQ", got)
	}
	if got := r.Learn(42, []string{"MNQZ5"}); got {
		t.Errorf("Learn overwrote an existing mapping")
	}
}

// TestSymbolResolver_UnmatchedNotLearned はヒント不一致のidが学習されず、
// 後続レコードで再評価されることを検証します。
func TestSymbolResolver_UnmatchedNotLearned(t *testing.T) {
	t.Parallel()

	r := usecase.NewSymbolResolver([]string{"NQ", "MNQ"})

	if got := r.Resolve(7, []string{"ESZ5"}); got != "NQ" {
		t.Fatalf("expected primary fallback, got %q", got)
	}
	if len(r.Mappings()) != 0 {
		t.Fatalf("fallback must not learn a mapping: %v", r.Mappings())
	}
	// 次のレコードで有効なヒントが来れば正しく学習される
	if got := r.Resolve(7, []string{"MNQZ5"}); got != "MNQ" {
		t.Errorf("re-evaluation failed: got %q, want MNQ", got)
	}
	if got, want := r.Mappings(), map[uint32]string{7: "MNQ"}; !reflect.DeepEqual(got, want) {
		t.Errorf("mappings mismatch: got %v, want %v", got, want)
	}
}

// TestSymbolResolver_Learn はメタデータレコード経由の学習を検証します。
func TestSymbolResolver_Learn(t *testing.T) {
	t.Parallel()

	r := usecase.NewSymbolResolver([]string{"NQ", "MNQ"})

	if !r.Learn(100, []string{"MNQM6"}) {
		t.Fatal("expected Learn to record a new mapping")
	}
	if got := r.Resolve(100, nil); got != "MNQ" {
		t.Errorf("learned mapping not used: got %q, want MNQ", got)
	}
	if r.Learn(101, []string{"unrelated"}) {
		t.Error("Learn must not record anything for unmatched hints")
	}
}
