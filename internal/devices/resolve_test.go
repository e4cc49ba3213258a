package devices

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePath(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"by-id", "by-path"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	stable := filepath.Join(root, "by-path", "platform-tegra-capture-vi-video-index0")
	if err := os.WriteFile(stable, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	old := V4L2Root
	V4L2Root = root
	t.Cleanup(func() { V4L2Root = old })

	tests := []struct {
		selector string
		want     string
		wantErr  bool
	}{
		{"0", "/dev/video0", false},
		{" 3 ", "/dev/video3", false},
		{"/dev/video1", "/dev/video1", false},
		{"platform-tegra-capture-vi-video-index0", stable, false},
		{"usb-missing", "", true},
		{"-1", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			got, err := ResolvePath(tt.selector)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolvePath(%q) error = %v, wantErr %v", tt.selector, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolvePath(%q) = %q, want %q", tt.selector, got, tt.want)
			}
		})
	}
}
