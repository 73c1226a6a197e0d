package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/yz4230/shipci/internal/entity"
)

// PushEvent is one ref update reported on post-receive stdin.
type PushEvent struct {
	OldSHA string
	NewSHA string
	Ref    string
}

const zeroSHA = "0000000000000000000000000000000000000000"

var shaRe = regexp.MustCompile(`^[0-9a-f]{40}$`)

// IsDelete reports whether the update removed the ref.
func (e PushEvent) IsDelete() bool {
	return e.NewSHA == zeroSHA || strings.Trim(e.NewSHA, "0") == ""
}

// ParsePushEvents reads `old new ref` lines as git writes them to the
// post-receive hook's stdin.
func ParsePushEvents(r io.Reader) ([]PushEvent, error) {
	var events []PushEvent
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid post-receive line: %q", line)
		}
		if !shaRe.MatchString(parts[0]) || !shaRe.MatchString(parts[1]) {
			return nil, fmt.Errorf("invalid sha in post-receive line: %q", line)
		}
		events = append(events, PushEvent{OldSHA: parts[0], NewSHA: parts[1], Ref: parts[2]})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read push events: %w", err)
	}
	return events, nil
}

// MatchTarget returns the revision to run when one of the events
// updates targetRef. Pushes to any other ref, and ref deletions, do
// not activate the pipeline.
func MatchTarget(events []PushEvent, targetRef string) (entity.Revision, bool) {
	for _, e := range events {
		if e.Ref != targetRef || e.IsDelete() {
			continue
		}
		return entity.Revision{SHA: e.NewSHA, Ref: e.Ref}, true
	}
	return entity.Revision{}, false
}
