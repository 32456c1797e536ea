package utils_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edpulse/edpulse-cli/internal/utils"
)

func TestSafeWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := utils.SafeWriteFile(path, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := utils.SafeWriteFile(path, []byte("second")); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("content = %q, want %q", got, "second")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := utils.PrettyJSON(map[string]int{"patients": 12})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "\"patients\": 12") {
		t.Errorf("output = %s", b)
	}
}
