package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestParseIDs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    []int64
		wantErr bool
	}{
		{name: "list", raw: "101, 102,103", want: []int64{101, 102, 103}},
		{name: "trailing comma", raw: "7,", want: []int64{7}},
		{name: "empty", raw: "", wantErr: true},
		{name: "not a number", raw: "7,x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseIDs(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseIDs() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestParseCartID(t *testing.T) {
	t.Parallel()

	if id, err := parseCartID("", true); err != nil || id != uuid.Nil {
		t.Fatalf("expected nil id, got %v %v", id, err)
	}
	if _, err := parseCartID("", false); err == nil {
		t.Fatal("expected error for missing cart id")
	}
	if _, err := parseCartID("not-a-uuid", true); err == nil {
		t.Fatal("expected error for invalid cart id")
	}

	want := uuid.New()
	got, err := parseCartID(want.String(), false)
	if err != nil || got != want {
		t.Fatalf("expected %s, got %s %v", want, got, err)
	}
}

func TestRunValidate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
products:
  - id: 1
    title: "Donation"
    type: simple
    custom_price: true
    suggested_price: "5"
    minimum_price: "10"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	var out bytes.Buffer
	if err := runValidate([]string{path}, &out); err != nil {
		t.Fatalf("runValidate() error = %v", err)
	}
	if !strings.Contains(out.String(), `"products": 1`) {
		t.Fatalf("expected product count, got %s", out.String())
	}
	if !strings.Contains(out.String(), "minimum price should not be higher than the suggested price") {
		t.Fatalf("expected suggested price warning, got %s", out.String())
	}
}
