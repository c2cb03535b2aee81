package notify

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// InviteQueue is the durable queue the mail worker consumes.
const InviteQueue = "candidate_invites"

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPNotifier publishes invites to RabbitMQ for an out-of-process mailer.
type AMQPNotifier struct {
	conn    *amqp.Connection
	channel publisher
	queue   string
	logger  *zap.SugaredLogger
}

// NewAMQPNotifier connects to the broker and declares the invite queue.
func NewAMQPNotifier(url string, logger *zap.SugaredLogger) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "connect to RabbitMQ")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}

	q, err := ch.QueueDeclare(
		InviteQueue, // queue name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, errors.Wrap(err, "declare invite queue")
	}

	logger.Infow("Connected to RabbitMQ", "queue", q.Name)
	return &AMQPNotifier{conn: conn, channel: ch, queue: q.Name, logger: logger}, nil
}

func (n *AMQPNotifier) SendInvite(ctx context.Context, inv Invite) error {
	body, err := json.Marshal(inv)
	if err != nil {
		return errors.Wrap(err, "encode invite")
	}

	err = n.channel.PublishWithContext(
		ctx,
		"",      // default exchange
		n.queue, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    inv.CandidateID,
			Body:         body,
		},
	)
	if err != nil {
		return errors.Wrapf(err, "publish invite for %s", inv.CandidateID)
	}
	return nil
}

func (n *AMQPNotifier) Close() error {
	err := n.channel.Close()
	if n.conn != nil {
		if cerr := n.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
