package blastdb

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeBuilder writes a shell script standing in for makeblastdb.
func fakeBuilder(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "makeblastdb")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuilder_Name(t *testing.T) {
	if got := New().Name(); got != "makeblastdb" {
		t.Errorf("Name() = %q, want %q", got, "makeblastdb")
	}
	if got := New(WithExe("/opt/blast/bin/makeblastdb")).Name(); got != "makeblastdb" {
		t.Errorf("Name() = %q, want %q", got, "makeblastdb")
	}
}

func TestBuilder_Build(t *testing.T) {
	// Arguments arrive as -dbtype nucl -in <fasta> -out <artifact>.
	exe := fakeBuilder(t, `touch "$6.nin" "$6.nhr" "$6.nsq"`)
	b := New(WithExe(exe))

	artifact := filepath.Join(t.TempDir(), "poa.001.blast")
	if err := b.Build(context.Background(), "shard.fasta", artifact); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
}

func TestBuilder_Build_NoArtifact(t *testing.T) {
	exe := fakeBuilder(t, `exit 0`)
	b := New(WithExe(exe))

	err := b.Build(context.Background(), "shard.fasta", filepath.Join(t.TempDir(), "poa.001.blast"))
	if err == nil {
		t.Fatal("Build() expected error for missing artifacts, got nil")
	}
	if !strings.Contains(err.Error(), "no artifact files") {
		t.Errorf("Build() error = %v, want missing-artifact complaint", err)
	}
}

func TestBuilder_Build_Failure(t *testing.T) {
	exe := fakeBuilder(t, `echo "BLAST options error: empty input" >&2; exit 1`)
	b := New(WithExe(exe))

	err := b.Build(context.Background(), "shard.fasta", filepath.Join(t.TempDir(), "poa.001.blast"))
	if err == nil {
		t.Fatal("Build() expected error for failing builder, got nil")
	}
	if !strings.Contains(err.Error(), "empty input") {
		t.Errorf("Build() error = %v, want builder output preserved", err)
	}
}

func TestBuilder_Build_MissingExe(t *testing.T) {
	b := New(WithExe(filepath.Join(t.TempDir(), "no-such-binary")))
	if err := b.Build(context.Background(), "shard.fasta", "out"); err == nil {
		t.Error("Build() expected error for missing binary, got nil")
	}
}
