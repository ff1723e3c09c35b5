package prompts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenDirEmpty(t *testing.T) {
	set, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if set != Defaults() {
		t.Fatalf("Load(\"\") should return defaults")
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "free_chat.txt"), []byte("自定义模板"), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	set, err := Load(dir)
	if err != nil {
		t.Fatalf("Load(%q) error = %v", dir, err)
	}
	if set.FreeChat != "自定义模板" {
		t.Fatalf("FreeChat = %q, want override", set.FreeChat)
	}
	if set.LogConfirm != Defaults().LogConfirm {
		t.Fatalf("LogConfirm should keep the default")
	}
}
