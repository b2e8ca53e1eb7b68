package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// DefaultSubject carries one message per committed ledger entry.
const DefaultSubject = "ledger.entries"

// msgPublisher is the part of *nats.Conn the publisher needs.
type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// Publisher implements ports.EventPublisher on a core NATS connection.
type Publisher struct {
	conn    msgPublisher
	subject string
}

// NewPublisher creates a publisher for subject (DefaultSubject when empty).
func NewPublisher(conn msgPublisher, subject string) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{conn: conn, subject: subject}
}

// Publish sends each event as JSON. The entry id goes in the Nats-Msg-Id
// header so JetStream consumers can drop duplicates.
func (p *Publisher) Publish(ctx context.Context, events []domain.LedgerEvent) error {
	var errs []error
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal ledger event: %w", err)
		}

		msg := nats.NewMsg(p.subject + "." + string(ev.Type))
		msg.Data = data
		msg.Header.Set(nats.MsgIdHdr, ev.EntryID.String())
		msg.Header.Set("Wallet-Id", ev.WalletID.String())

		if err := p.conn.PublishMsg(msg); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", ev.EntryID, err))
		}
	}
	return errors.Join(errs...)
}

// Connect dials NATS with reconnect handling wired to the logger.
func Connect(url string, log zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("wallet-ledger"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS connection established")
	return nc, nil
}

// HealthCheck implements ports.HealthChecker for NATS.
type HealthCheck struct {
	conn *nats.Conn
}

// NewHealthCheck creates a NATS health checker.
func NewHealthCheck(conn *nats.Conn) *HealthCheck {
	return &HealthCheck{conn: conn}
}

// Ping round-trips a PING to the server.
func (h *HealthCheck) Ping(ctx context.Context) error {
	if !h.conn.IsConnected() {
		return fmt.Errorf("nats status: %s", h.conn.Status())
	}
	return h.conn.FlushWithContext(ctx)
}

// Name returns the dependency name.
func (h *HealthCheck) Name() string {
	return "nats"
}
