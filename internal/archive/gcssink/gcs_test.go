package gcssink

import "testing"

func TestParsePath(t *testing.T) {
	tests := []struct {
		input      string
		wantBucket string
		wantPrefix string
		wantErr    bool
	}{
		{"gs://bucket", "bucket", "", false},
		{"gs://bucket/", "bucket", "", false},
		{"gs://bucket/prefix", "bucket", "prefix/", false},
		{"gs://bucket/prefix/", "bucket", "prefix/", false},
		{"gs://bucket/a/b/c", "bucket", "a/b/c/", false},
		{"gs://", "", "", true},
		{"s3://bucket/prefix", "", "", true},
		{"bucket/prefix", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			bucket, prefix, err := parsePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if bucket != tt.wantBucket {
				t.Errorf("bucket = %q, want %q", bucket, tt.wantBucket)
			}
			if prefix != tt.wantPrefix {
				t.Errorf("prefix = %q, want %q", prefix, tt.wantPrefix)
			}
		})
	}
}
