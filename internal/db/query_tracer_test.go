package db

import (
	"strings"
	"testing"
)

func TestNormalizeQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		want  string
		op    string
	}{
		{query: "", want: "sql.query"},
		{query: "  SELECT id\n\tFROM nyp_products  WHERE id = $1 ", want: "SELECT id FROM nyp_products WHERE id = $1", op: "SELECT"},
		{query: "update nyp_products set hidden = true", want: "update nyp_products set hidden = true", op: "UPDATE"},
	}

	for _, tc := range tests {
		got := normalizeQuery(tc.query)
		if got != tc.want {
			t.Fatalf("normalizeQuery(%q) = %q, want %q", tc.query, got, tc.want)
		}
		if tc.query != "" {
			if op := queryOperation(got); op != tc.op {
				t.Fatalf("queryOperation(%q) = %q, want %q", got, op, tc.op)
			}
		}
	}

	long := "SELECT " + strings.Repeat("x, ", 400)
	if got := normalizeQuery(long); len(got) != 512 {
		t.Fatalf("expected truncation to 512, got %d", len(got))
	}
}
