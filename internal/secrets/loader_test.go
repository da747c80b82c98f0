package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "gemini.key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	emptyFile := filepath.Join(dir, "empty.key")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	t.Setenv("RESUME_MATCHER_TEST_KEY", " from-env ")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{
			name: "file wins over value and env",
			src:  Source{Name: "gemini api key", File: keyFile, Value: "inline", Env: "RESUME_MATCHER_TEST_KEY"},
			want: "from-file",
		},
		{
			name: "value wins over env",
			src:  Source{Value: " inline ", Env: "RESUME_MATCHER_TEST_KEY"},
			want: "inline",
		},
		{
			name: "env fallback",
			src:  Source{Env: "RESUME_MATCHER_TEST_KEY"},
			want: "from-env",
		},
		{
			name:    "empty file",
			src:     Source{Name: "supabase key", File: emptyFile},
			wantErr: "is empty",
		},
		{
			name:    "unset env",
			src:     Source{Name: "database url", Env: "RESUME_MATCHER_UNSET"},
			wantErr: "set RESUME_MATCHER_UNSET",
		},
		{
			name:    "nothing configured",
			src:     Source{},
			wantErr: "secret is not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestOptional(t *testing.T) {
	got, err := Optional(Source{Name: "supabase key"})
	if err != nil || got != "" {
		t.Fatalf("expected empty optional secret, got %q, %v", got, err)
	}

	if _, err := Optional(Source{File: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatalf("expected error for missing explicit file")
	}
}
