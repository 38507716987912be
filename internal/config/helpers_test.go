package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHelpers_FromEnvOrFlag(t *testing.T) {
	const key = "CFG_STR"
	tests := []struct {
		name   string
		env    string
		flag   string
		def    string
		expect string
	}{
		{
			name:   "env takes precedence over flag",
			env:    "  env-val  ",
			flag:   "flag-val",
			def:    "def",
			expect: "env-val",
		},
		{
			name:   "flag used when env empty",
			env:    "",
			flag:   "  flag-val  ",
			def:    "def",
			expect: "flag-val",
		},
		{
			name:   "default used when both empty",
			env:    "   ",
			flag:   "   ",
			def:    "def",
			expect: "def",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(key, tc.env)
			got := FromEnvOrFlag(key, tc.flag, tc.def)
			if got != tc.expect {
				t.Fatalf("got %q, want %q", got, tc.expect)
			}
		})
	}
}

func TestHelpers_FromEnvOrFlagInt(t *testing.T) {
	const key = "CFG_INT"
	tests := []struct {
		name   string
		env    string
		flag   int
		def    int
		min    int
		expect int
	}{
		{
			name:   "env >= min wins",
			env:    "7",
			flag:   3,
			def:    5,
			min:    1,
			expect: 7,
		},
		{
			name:   "env < min ignored, flag >= min used",
			env:    "0",
			flag:   4,
			def:    5,
			min:    1,
			expect: 4,
		},
		{
			name:   "env invalid ignored, flag 0 ignored -> default",
			env:    "abc",
			flag:   0,
			def:    5,
			min:    1,
			expect: 5,
		},
		{
			name:   "flag < min ignored -> default",
			env:    "",
			flag:   1,
			def:    9,
			min:    2,
			expect: 9,
		},
		{
			name:   "trims env before parse",
			env:    "   12  ",
			flag:   2,
			def:    1,
			min:    1,
			expect: 12,
		},
		{
			name:   "default can be below min (function doesn't clamp def)",
			env:    "",
			flag:   0,
			def:    0,
			min:    2,
			expect: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(key, tc.env)
			got := FromEnvOrFlagInt(key, tc.flag, tc.def, tc.min)
			if got != tc.expect {
				t.Fatalf("got %d, want %d", got, tc.expect)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		if err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("empty path is ignored", func(t *testing.T) {
		if err := LoadDotEnv(""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("does not override existing env", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("DOTENV_A=from-file\nDOTENV_B=from-file\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("DOTENV_A", "from-env")
		t.Setenv("DOTENV_B", "")
		if err := os.Unsetenv("DOTENV_B"); err != nil {
			t.Fatal(err)
		}

		if err := LoadDotEnv(path); err != nil {
			t.Fatalf("LoadDotEnv: %v", err)
		}
		if got := os.Getenv("DOTENV_A"); got != "from-env" {
			t.Errorf("DOTENV_A=%q want from-env", got)
		}
		if got := os.Getenv("DOTENV_B"); got != "from-file" {
			t.Errorf("DOTENV_B=%q want from-file", got)
		}
	})
}
