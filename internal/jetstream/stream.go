package jetstream

import (
	"strings"
	"time"

	nats "github.com/nats-io/nats.go"
)

const (
	StreamName    = "RESTREAM"
	SubjectPrefix = "restream.session."

	// AllSessionSubjects matches every per-session subject for consumers.
	AllSessionSubjects = SubjectPrefix + ">"
)

func EnsureStream(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"restream.>"},
		Storage:   nats.FileStorage,
		MaxAge:    24 * time.Hour,
		Retention: nats.WorkQueuePolicy,
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}
	return nil
}

func RawSubject(sessionID string) string {
	return SubjectPrefix + sessionID + ".raw"
}

func DeltaSubject(sessionID string) string {
	return SubjectPrefix + sessionID + ".delta"
}

func DoneSubject(sessionID string) string {
	return SubjectPrefix + sessionID + ".done"
}
