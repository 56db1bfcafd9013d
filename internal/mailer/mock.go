package mailer

import (
	"context"
	"sync"
)

// Mock collects outgoing mail for assertions. A scripted Err makes Send fail
// without recording the message, mirroring a delivery that never left.
type Mock struct {
	mu   sync.Mutex
	Sent []Email
	Err  error
}

var _ Service = (*Mock)(nil)

func (m *Mock) Send(ctx context.Context, e Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, e)
	return nil
}

// Last returns the most recent message, or false when nothing was sent.
func (m *Mock) Last() (Email, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return Email{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}
