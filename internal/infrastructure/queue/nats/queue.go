package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
	"github.com/kirillkom/documind-auditor/internal/infrastructure/resilience"
)

const (
	DefaultSubject = "audits.completed"
	archiverGroup  = "report-archivers"

	// headerMsgID lets a JetStream stream on the subject drop redeliveries of one audit.
	headerMsgID       = "Nats-Msg-Id"
	headerCompletedAt = "Documind-Completed-At"

	publishFlushTimeout = 2 * time.Second
	drainFlushTimeout   = 5 * time.Second
)

// Queue carries audit.completed events between the API/CLI and the report archiver.
type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	ClientName           string
}

func (o Options) natsOptions() []nats.Option {
	name := o.ClientName
	if name == "" {
		name = "documind-auditor"
	}
	retryOnFailedConnect := true
	if o.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *o.RetryOnFailedConnect
	}
	return []nats.Option{
		nats.Name(name),
		nats.Timeout(durationOr(o.ConnectTimeout, 2*time.Second)),
		nats.ReconnectWait(durationOr(o.ReconnectWait, 2*time.Second)),
		nats.MaxReconnects(intOr(o.MaxReconnects, 60)),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "client", name, "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "client", name, "url", nc.ConnectedUrl())
		}),
	}
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	conn, err := nats.Connect(url, options.natsOptions()...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{conn: conn, subject: subject, executor: options.ResilienceExecutor}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// PublishAuditCompleted returns once the server has the message.
func (q *Queue) PublishAuditCompleted(ctx context.Context, event domain.AuditCompletedEvent) error {
	msg, err := newEventMsg(q.subject, event)
	if err != nil {
		return err
	}
	call := func(callCtx context.Context) error {
		if err := q.conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		flushCtx, cancel := context.WithTimeout(callCtx, publishFlushTimeout)
		defer cancel()
		if err := q.conn.FlushWithContext(flushCtx); err != nil {
			if callCtx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				// The broker went quiet, not the caller.
				err = nats.ErrTimeout
			}
			return fmt.Errorf("nats publish flush: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyPublishError)
	} else {
		err = call(ctx)
	}
	return publishError(err)
}

// publishError marks failures worth retrying later as ErrTemporary.
func publishError(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyPublishError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, "nats publish", err)
	}
	return err
}

// classifyPublishError retries broker outages. Caller mistakes such as a bad
// subject or an oversized event are not held against the breaker.
func classifyPublishError(err error) resilience.ErrorClassification {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, nats.ErrBadSubject),
		errors.Is(err, nats.ErrMaxPayload),
		errors.Is(err, nats.ErrInvalidMsg):
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err),
		errors.Is(err, nats.ErrNoServers),
		errors.Is(err, nats.ErrNoResponders),
		errors.Is(err, nats.ErrTimeout),
		errors.Is(err, nats.ErrConnectionClosed),
		errors.Is(err, nats.ErrConnectionReconnecting),
		errors.Is(err, nats.ErrDisconnected):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{RecordFailure: true}
	}
}

// SubscribeAuditCompleted blocks until ctx is done, then drains the subscription.
// Archivers share one queue group, so each event is handled once.
// Messages that fail to decode are dropped with a log line.
func (q *Queue) SubscribeAuditCompleted(ctx context.Context, handler func(context.Context, domain.AuditCompletedEvent) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, archiverGroup, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		event, err := decodeEvent(msg.Data)
		if err != nil {
			slog.Error("audit_event_decode_failed", "subject", msg.Subject, "msg_id", msg.Header.Get(headerMsgID), "error", err)
			return
		}
		if err := handler(ctx, event); err != nil {
			slog.Error("audit_event_handler_failed", "entry_id", event.Entry.ID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(drainFlushTimeout); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func newEventMsg(subject string, event domain.AuditCompletedEvent) (*nats.Msg, error) {
	payload, err := encodeEvent(event)
	if err != nil {
		return nil, err
	}
	msg := nats.NewMsg(subject)
	msg.Data = payload
	msg.Header.Set(headerMsgID, event.Entry.ID)
	msg.Header.Set(headerCompletedAt, event.Entry.Date.UTC().Format(time.RFC3339))
	return msg, nil
}

func encodeEvent(event domain.AuditCompletedEvent) ([]byte, error) {
	if event.Entry.ID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "encode audit event", errors.New("entry id is empty"))
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode audit event: %w", err)
	}
	return payload, nil
}

func decodeEvent(raw []byte) (domain.AuditCompletedEvent, error) {
	var event domain.AuditCompletedEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return domain.AuditCompletedEvent{}, domain.WrapError(domain.ErrInvalidInput, "decode audit event", err)
	}
	if event.Entry.ID == "" {
		return domain.AuditCompletedEvent{}, domain.WrapError(domain.ErrInvalidInput, "decode audit event", errors.New("entry id is empty"))
	}
	return event, nil
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}

func intOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
