package entity

// Revision is an immutable snapshot of source code identified by a
// commit SHA, together with the ref whose update carried it.
type Revision struct {
	SHA string
	Ref string
}

func (r Revision) ShortSHA() string {
	if len(r.SHA) > 7 {
		return r.SHA[:7]
	}
	return r.SHA
}
