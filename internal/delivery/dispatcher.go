// Package delivery dispatches one-time codes over SMS and email. Dispatch is
// fire-and-forget: enqueueing never blocks the triggering operation and
// delivery failures are logged, never propagated.
package delivery

import (
	"sync"

	"github.com/akarpov/passportd/internal/logger"
	"github.com/akarpov/passportd/internal/model"
)

var _ model.DeliveryGateway = (*Dispatcher)(nil)

// Dispatcher feeds a bounded queue consumed by a small worker pool. When the
// queue is full the message is dropped with a warning; the triggering state
// change has already been persisted and the caller can request a resend.
type Dispatcher struct {
	jobs   chan func()
	wg     sync.WaitGroup
	sms    SMSSender
	mail   MailSender
	logger *logger.Logger
}

func NewDispatcher(sms SMSSender, mail MailSender, queueSize, workers int, logger *logger.Logger) *Dispatcher {
	d := &Dispatcher{
		jobs:   make(chan func(), queueSize),
		sms:    sms,
		mail:   mail,
		logger: logger,
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}

	return d
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for job := range d.jobs {
		job()
	}
}

// SendSMS enqueues a text message for delivery.
func (d *Dispatcher) SendSMS(cellphone, text string) {
	d.enqueue(func() {
		if err := d.sms.Send(cellphone, text); err != nil {
			d.logger.Warn("failed to send SMS message", "cellphone", cellphone, "error", err)
			return
		}
		d.logger.Info("sent SMS message", "cellphone", cellphone)
	})
}

// SendMail enqueues an HTML mail for delivery.
func (d *Dispatcher) SendMail(to []string, subject, htmlBody string) {
	d.enqueue(func() {
		if err := d.mail.Send(to, subject, htmlBody); err != nil {
			d.logger.Warn("failed to send mail", "to", to, "error", err)
			return
		}
		d.logger.Info("sent mail", "to", to)
	})
}

func (d *Dispatcher) enqueue(job func()) {
	select {
	case d.jobs <- job:
	default:
		d.logger.Warn("delivery queue full, dropping message")
	}
}

// Stop drains the queue and waits for in-flight deliveries to finish. No
// sends may be issued after Stop.
func (d *Dispatcher) Stop() {
	close(d.jobs)
	d.wg.Wait()
}
