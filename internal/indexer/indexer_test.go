package indexer

import (
	"context"
	"errors"
	"testing"
)

func TestBuilderFunc(t *testing.T) {
	var gotFasta, gotArtifact string
	b := BuilderFunc(func(ctx context.Context, fastaPath, artifactPath string) error {
		gotFasta, gotArtifact = fastaPath, artifactPath
		return nil
	})

	if err := b.Build(context.Background(), "in.fasta", "out.db"); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if gotFasta != "in.fasta" || gotArtifact != "out.db" {
		t.Errorf("Build() passed (%q, %q), want (%q, %q)", gotFasta, gotArtifact, "in.fasta", "out.db")
	}
	if got := b.Name(); got != "custom" {
		t.Errorf("Name() = %q, want %q", got, "custom")
	}
}

func TestBuilderFunc_Error(t *testing.T) {
	want := errors.New("boom")
	b := BuilderFunc(func(ctx context.Context, fastaPath, artifactPath string) error {
		return want
	})
	if err := b.Build(context.Background(), "in", "out"); !errors.Is(err, want) {
		t.Errorf("Build() error = %v, want %v", err, want)
	}
}
