package preprocess

import "fmt"

// StoreName returns the sequence-store filename for a bank base name.
func StoreName(base string) string {
	return base + ".sqlite.db"
}

// ShardFileName returns the FASTA filename materialized for one shard
// ordinal. Ordinals are 1-based and zero-padded to three digits.
func ShardFileName(base string, ordinal int) string {
	return fmt.Sprintf("%s.%03d.fasta", base, ordinal)
}

// ArtifactName returns the index-artifact path stem for one shard ordinal.
// The index builder appends its own extensions to the stem.
func ArtifactName(base string, ordinal int) string {
	return fmt.Sprintf("%s.%03d.blast", base, ordinal)
}
