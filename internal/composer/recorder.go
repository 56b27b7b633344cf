package composer

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrAlreadyRecording means Start was called twice without Stop.
	// At most one recording is outstanding at a time.
	ErrAlreadyRecording = errors.New("a recording is already in progress")

	// ErrNotRecording means Stop or Write was called with no active recording.
	ErrNotRecording = errors.New("no recording in progress")
)

// Recorder is a voice recording session. The capture source (whatever
// produces encoded audio) streams chunks in through Write; Stop
// assembles them into a single payload with the elapsed duration.
// Stopping is the only cancellation path for an in-progress recording.
type Recorder struct {
	mu      sync.Mutex
	active  bool
	started time.Time
	chunks  [][]byte
	mime    string

	// now is swapped in tests to control the duration
	now func() time.Time
}

// NewRecorder creates a recorder producing payloads of the given MIME
// type. Empty defaults to audio/webm, matching what browsers emit.
func NewRecorder(mime string) *Recorder {
	if mime == "" {
		mime = "audio/webm"
	}
	return &Recorder{mime: mime, now: time.Now}
}

// Start begins a new recording session.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return ErrAlreadyRecording
	}
	r.active = true
	r.started = r.now()
	r.chunks = nil
	return nil
}

// Write appends one chunk of encoded audio. Implements io.Writer so any
// capture source can pipe straight in.
func (r *Recorder) Write(chunk []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return 0, ErrNotRecording
	}
	buf := make([]byte, len(chunk))
	copy(buf, chunk)
	r.chunks = append(r.chunks, buf)
	return len(chunk), nil
}

// Recording is an assembled voice payload.
type Recording struct {
	// Data is the raw encoded audio
	Data []byte

	// Duration is the recording length in whole seconds
	Duration int

	// MIME is the payload's content type
	MIME string
}

// Stop ends the session and assembles the chunks into one payload.
func (r *Recorder) Stop() (*Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return nil, ErrNotRecording
	}
	r.active = false

	var size int
	for _, c := range r.chunks {
		size += len(c)
	}
	data := make([]byte, 0, size)
	for _, c := range r.chunks {
		data = append(data, c...)
	}
	r.chunks = nil

	return &Recording{
		Data:     data,
		Duration: int(r.now().Sub(r.started) / time.Second),
		MIME:     r.mime,
	}, nil
}

// Cancel discards an in-progress recording without producing a payload.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
	r.chunks = nil
}

// Recording reports whether a session is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// DataURL encodes the payload as a base64 data URL for transport.
func (rec *Recording) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", rec.MIME, base64.StdEncoding.EncodeToString(rec.Data))
}
