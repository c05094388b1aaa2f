package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	if NormalizeLimit(0) != DefaultLimit || NormalizeLimit(500) != MaxLimit || NormalizeLimit(10) != 10 {
		t.Fatal("unexpected limit normalization")
	}
}

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 123, time.UTC), ID: uuid.New()}
	parsed, err := ParseCursor(EncodeCursor(c))
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if !parsed.CreatedAt.Equal(c.CreatedAt) || parsed.ID != c.ID {
		t.Fatalf("cursor mismatch %+v vs %+v", parsed, c)
	}
	if nilCursor, err := ParseCursor(" "); err != nil || nilCursor != nil {
		t.Fatalf("blank cursor should be nil, got %v err=%v", nilCursor, err)
	}
	if _, err := ParseCursor("not-a-cursor!"); err == nil {
		t.Fatal("expected invalid cursor error")
	}
}

func TestTrim(t *testing.T) {
	type row struct {
		id uuid.UUID
		at time.Time
	}
	now := time.Now().UTC()
	rows := []row{{uuid.New(), now}, {uuid.New(), now.Add(-time.Minute)}, {uuid.New(), now.Add(-2 * time.Minute)}}
	key := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page, next := Trim(rows, 2, key)
	if len(page) != 2 || next == "" {
		t.Fatalf("expected a trimmed page with cursor, got %d %q", len(page), next)
	}
	c, _ := ParseCursor(next)
	if c.ID != rows[1].id {
		t.Fatalf("cursor should point at the last returned row")
	}

	page, next = Trim(rows, 3, key)
	if len(page) != 3 || next != "" {
		t.Fatalf("expected final page without cursor")
	}
}
