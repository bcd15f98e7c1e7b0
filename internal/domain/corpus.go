package domain

// Corpus is the ordered collection of article records.
type Corpus []Article

// Clone deep-copies every record.
func (c Corpus) Clone() Corpus {
	if c == nil {
		return nil
	}
	out := make(Corpus, len(c))
	for i := range c {
		out[i] = c[i].Clone()
	}
	return out
}

// Fingerprints returns the set of record identities.
func (c Corpus) Fingerprints() map[string]struct{} {
	set := make(map[string]struct{}, len(c))
	for _, a := range c {
		set[a.Fingerprint] = struct{}{}
	}
	return set
}
