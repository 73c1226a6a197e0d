package entity

// Artifact is a container image produced from a Revision. It is owned
// by the run that built it and superseded, never mutated, by the next
// successful run.
type Artifact struct {
	Image    string   `json:"image"`
	Tags     []string `json:"tags"`
	EngineID string   `json:"engine_id"`
}

// PrimaryTag is the revision-addressed tag the artifact is published
// under first.
func (a Artifact) PrimaryTag() string {
	if len(a.Tags) == 0 {
		return a.Image
	}
	return a.Tags[0]
}
