package readbank

// Read is one sequencing read stored in a bank.
type Read struct {
	// Name is the bare read name with any end suffix stripped.
	Name string

	// End marks which half of a pair this read is: "1", "2", or empty for
	// unpaired reads.
	End string

	// Seq is the nucleotide sequence.
	Seq string
}

// ID returns the read's full identifier: the bare name, or "name/end" for
// paired reads.
func (r Read) ID() string {
	if r.End == "" {
		return r.Name
	}
	return r.Name + "/" + r.End
}

// IsPaired reports whether the read carries an end marker.
func (r Read) IsPaired() bool {
	return r.End != ""
}

// FASTA renders the read as a two-line FASTA record, matching the shard
// files the index builder consumes.
func (r Read) FASTA() string {
	return ">" + r.ID() + "\n" + r.Seq + "\n"
}
