package report

// Recorder is a Sink that retains every delivered message in order. Tests
// inject it to assert on emitted codes without standing up a log pipeline.
type Recorder struct {
	Messages []Message
}

func (r *Recorder) Handle(msg Message) {
	r.Messages = append(r.Messages, msg)
}

func (r *Recorder) Close() error {
	return nil
}

// Codes returns the message codes of all recorded messages in order.
func (r *Recorder) Codes() []MessageCode {
	codes := make([]MessageCode, 0, len(r.Messages))
	for _, msg := range r.Messages {
		codes = append(codes, msg.Code)
	}
	return codes
}

// CountOf returns how many recorded messages carry the provided code.
func (r *Recorder) CountOf(code MessageCode) int {
	count := 0
	for _, msg := range r.Messages {
		if msg.Code == code {
			count++
		}
	}
	return count
}

// ErrorCount returns how many recorded messages were emitted at
// SeverityError.
func (r *Recorder) ErrorCount() int {
	count := 0
	for _, msg := range r.Messages {
		if msg.Severity&SeverityError != 0 {
			count++
		}
	}
	return count
}

// Reset discards all recorded messages.
func (r *Recorder) Reset() {
	r.Messages = nil
}
