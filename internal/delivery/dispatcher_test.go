package delivery

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarpov/passportd/internal/testutil"
)

type fakeSMSSender struct {
	mu      sync.Mutex
	sent    []string
	err     error
	release chan struct{}
}

func (f *fakeSMSSender) Send(cellphone, text string) error {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, cellphone+": "+text)
	return f.err
}

func (f *fakeSMSSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeMailSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeMailSender) Send(to []string, subject, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to[0]+": "+subject)
	return f.err
}

func (f *fakeMailSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestDispatcher_DeliversBothChannels(t *testing.T) {
	sms := &fakeSMSSender{}
	mail := &fakeMailSender{}
	d := NewDispatcher(sms, mail, 8, 2, testutil.MakeNoopLogger())

	d.SendSMS("+8613800000000", "code 123456")
	d.SendMail([]string{"user@example.com"}, BindingMailSubject, EmailBindingBody("deadbeef"))
	d.Stop()

	require.Equal(t, 1, sms.count())
	require.Equal(t, 1, mail.count())
	assert.Equal(t, "+8613800000000: code 123456", sms.sent[0])
	assert.Equal(t, "user@example.com: "+BindingMailSubject, mail.sent[0])
}

func TestDispatcher_SenderFailureDoesNotPropagate(t *testing.T) {
	sms := &fakeSMSSender{err: errors.New("gateway down")}
	mail := &fakeMailSender{err: errors.New("smtp down")}
	d := NewDispatcher(sms, mail, 8, 1, testutil.MakeNoopLogger())

	d.SendSMS("+8613800000000", "code 123456")
	d.SendMail([]string{"user@example.com"}, AuthMailSubject, EmailAuthBody("deadbeef"))
	d.Stop()

	assert.Equal(t, 1, sms.count())
	assert.Equal(t, 1, mail.count())
}

func TestDispatcher_EnqueueNeverBlocks(t *testing.T) {
	release := make(chan struct{})
	sms := &fakeSMSSender{release: release}
	d := NewDispatcher(sms, &fakeMailSender{}, 2, 1, testutil.MakeNoopLogger())

	// One job stuck in the worker, two in the queue, the rest dropped.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.SendSMS("+8613800000000", "code")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}

	close(release)
	d.Stop()

	assert.LessOrEqual(t, sms.count(), 3)
	assert.GreaterOrEqual(t, sms.count(), 1)
}

func TestDispatcher_StopDrainsQueue(t *testing.T) {
	sms := &fakeSMSSender{}
	d := NewDispatcher(sms, &fakeMailSender{}, 16, 4, testutil.MakeNoopLogger())

	for i := 0; i < 10; i++ {
		d.SendSMS("+8613800000000", "code")
	}
	d.Stop()

	assert.Equal(t, 10, sms.count())
}
