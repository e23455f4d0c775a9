package archive

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestBankFiles(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{
		"moth.sqlite.db",
		"moth.001.blast.nin",
		"moth.002.blast.nin",
		"manifest.json",
		".readbank.lock",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, ".tmp"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := BankFiles(dir)
	if err != nil {
		t.Fatalf("BankFiles() error = %v", err)
	}

	want := []string{
		"manifest.json",
		"moth.001.blast.nin",
		"moth.002.blast.nin",
		"moth.sqlite.db",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BankFiles() = %v, want %v", got, want)
	}
}

func TestBankFiles_MissingDir(t *testing.T) {
	_, err := BankFiles(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
