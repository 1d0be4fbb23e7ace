package config

import (
	"path/filepath"
	"testing"
)

func TestFileSafe(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"office-vpn", "office-vpn"},
		{"my_tunnel.v2", "my_tunnel.v2"},
		{"a/b", "a_b"},
		{"../etc", ".._etc"},
		{"..", "__"},
		{".", "_"},
		{"with space", "with_space"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := fileSafe(tt.id); got != tt.want {
				t.Errorf("fileSafe(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestInstanceFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := InstanceFile("a/b")
	if err != nil {
		t.Fatalf("InstanceFile() error = %v", err)
	}
	want := filepath.Join(home, GlobalDirName, InstancesDirName, "a_b.yaml")
	if got != want {
		t.Errorf("InstanceFile() = %q, want %q", got, want)
	}
}
