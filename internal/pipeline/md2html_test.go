package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestGoldmarkConverter_ToFragment - Markdown long-text mode
// ---------------------------------------------------------------------------

func TestGoldmarkConverter_ToFragment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		contains    []string
		notContains []string
	}{
		{
			name:     "bullet list",
			input:    "- Larian 100m\n- Lompat jauh",
			contains: []string{"<ul>", "<li>Larian 100m</li>"},
		},
		{
			name:     "hard wraps keep line breaks",
			input:    "Baris satu\nBaris dua",
			contains: []string{"Baris satu<br />"},
		},
		{
			name:        "raw HTML is not passed through",
			input:       "<script>alert(1)</script>",
			notContains: []string{"<script>"},
		},
		{
			name:        "fragment has no document wrapper",
			input:       "teks",
			contains:    []string{"<p>teks</p>"},
			notContains: []string{"<html", "<body"},
		},
	}

	conv := NewGoldmarkConverter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := conv.ToFragment(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("ToFragment() error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("ToFragment() = %q, want to contain %q", got, want)
				}
			}
			for _, bad := range tt.notContains {
				if strings.Contains(got, bad) {
					t.Errorf("ToFragment() = %q, should not contain %q", got, bad)
				}
			}
		})
	}
}

func TestGoldmarkConverter_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGoldmarkConverter().ToFragment(ctx, "x")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ToFragment() error = %v, want context.Canceled", err)
	}
}
