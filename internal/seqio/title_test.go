package seqio

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		role     Role
		wantName string
		wantEnd  End
	}{
		{
			name:     "bare name",
			header:   "seq1",
			role:     RoleSingle,
			wantName: "seq1",
			wantEnd:  EndNone,
		},
		{
			name:     "slash suffix",
			header:   "read_7/1",
			role:     RoleMixed,
			wantName: "read_7",
			wantEnd:  End1,
		},
		{
			name:     "space suffix",
			header:   "read_7 2",
			role:     RoleMixed,
			wantName: "read_7",
			wantEnd:  End2,
		},
		{
			name:     "dot suffix",
			header:   "read_7.1",
			role:     RoleMixed,
			wantName: "read_7",
			wantEnd:  End1,
		},
		{
			name:     "underscore suffix",
			header:   "read_2",
			role:     RoleMixed,
			wantName: "read",
			wantEnd:  End2,
		},
		{
			name:     "only trailing suffix is stripped",
			header:   "abc/1/2",
			role:     RoleMixed,
			wantName: "abc/1",
			wantEnd:  End2,
		},
		{
			name:     "digit other than 1 or 2 stays",
			header:   "read/3",
			role:     RoleMixed,
			wantName: "read/3",
			wantEnd:  EndNone,
		},
		{
			name:     "surrounding whitespace trimmed",
			header:   "  readA \t",
			role:     RoleSingle,
			wantName: "readA",
			wantEnd:  EndNone,
		},
		{
			name:     "pair1 clamps unmarked header",
			header:   "readA",
			role:     RolePair1,
			wantName: "readA",
			wantEnd:  End1,
		},
		{
			name:     "pair2 clamps unmarked header",
			header:   "readA",
			role:     RolePair2,
			wantName: "readA",
			wantEnd:  End2,
		},
		{
			name:     "clamp overrides parsed marker",
			header:   "readA/1",
			role:     RolePair2,
			wantName: "readA",
			wantEnd:  End2,
		},
		{
			name:     "long reads keep no marker",
			header:   "nanopore_0042",
			role:     RoleLong,
			wantName: "nanopore_0042",
			wantEnd:  EndNone,
		},
		{
			name:     "description after whitespace is part of the suffix check",
			header:   "read_7 descriptive text 1",
			role:     RoleSingle,
			wantName: "read_7 descriptive text",
			wantEnd:  End1,
		},
		{
			name:     "empty header",
			header:   "",
			role:     RoleSingle,
			wantName: "",
			wantEnd:  EndNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, end := Normalize(tt.header, tt.role)
			if name != tt.wantName || end != tt.wantEnd {
				t.Errorf("Normalize(%q, %v) = (%q, %q), want (%q, %q)",
					tt.header, tt.role, name, end, tt.wantName, tt.wantEnd)
			}
		})
	}
}

func TestRole_RoundTrip(t *testing.T) {
	roles := []Role{RoleSingle, RolePair1, RolePair2, RoleMixed, RoleLong}
	for _, role := range roles {
		got, err := ParseRole(role.String())
		if err != nil {
			t.Fatalf("ParseRole(%q) error = %v", role.String(), err)
		}
		if got != role {
			t.Errorf("ParseRole(%q) = %v, want %v", role.String(), got, role)
		}
	}

	if _, err := ParseRole("paired"); err == nil {
		t.Error("ParseRole(\"paired\") expected error, got nil")
	}
}
