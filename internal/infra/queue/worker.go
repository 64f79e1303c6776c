package queue

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/preludehq/leaddesk/internal/entity"
)

// OutreachMailer sends one outreach email.
type OutreachMailer interface {
	SendOutreach(to, name, company, subject, body string) error
}

// StatusConfirmer writes the contacted status back to the leads service once
// the email actually went out. This is the asynchronous half the optimistic
// UI mark runs ahead of.
type StatusConfirmer interface {
	UpdateStatus(ctx context.Context, id, status string) error
}

type Worker struct {
	Channel *amqp.Channel
	Mailer  OutreachMailer
	Leads   StatusConfirmer
}

func NewWorker(ch *amqp.Channel, mailer OutreachMailer, leads StatusConfirmer) *Worker {
	return &Worker{
		Channel: ch,
		Mailer:  mailer,
		Leads:   leads,
	}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack off, we ack per message
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		log.Fatalf("register outreach consumer: %s", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			w.handleDelivery(d)
		}
	}()

	log.Printf(" [*] outreach worker waiting on queue '%s'", queueName)
	<-forever
}

func (w *Worker) handleDelivery(d amqp.Delivery) {
	var payload OutreachPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		log.Printf("[worker] malformed outreach payload, dropping: %s", err)
		// Poison message: reject without requeue so it cannot jam the queue.
		d.Nack(false, false)
		return
	}

	log.Printf("[worker] sending outreach to %s (batch %s)", payload.Email, payload.BatchID)

	if err := w.Mailer.SendOutreach(payload.Email, payload.Name, payload.Company, payload.Subject, payload.Body); err != nil {
		log.Printf("[worker] send failed for %s: %s", payload.Email, err)
		d.Nack(false, false) // off to the DLQ
		return
	}

	// The email is out; a confirm failure must not requeue the message or the
	// recipient gets it twice. Reply sync will reconcile the status later.
	if err := w.Leads.UpdateStatus(context.Background(), payload.LeadID, entity.StatusContacted); err != nil {
		log.Printf("[worker] status confirm failed for lead %s: %s", payload.LeadID, err)
	}

	d.Ack(false)
}
