package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// StreamName is the JetStream stream holding confirmation events.
	StreamName = "UMI_CONFIRMATIONS"

	// SubjectPrefix prefixes the cluster in every event subject.
	SubjectPrefix = "umi.confirmations"

	// StreamRetention is how long events are retained.
	StreamRetention = 7 * 24 * time.Hour
)

// Subject returns the subject events for cluster are published to.
func Subject(cluster string) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, cluster)
}

// JetStreamPublisher publishes confirmation events to NATS JetStream.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

var _ Publisher = (*JetStreamPublisher)(nil)

// NewJetStreamPublisher connects to natsURL and ensures the stream exists.
func NewJetStreamPublisher(ctx context.Context, natsURL string, logger *slog.Logger) (*JetStreamPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("go-umi"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &JetStreamPublisher{nc: nc, js: js, logger: logger}
	if err := p.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream exists: %w", err)
	}

	logger.Info("NATS publisher initialized", "url", natsURL, "stream", StreamName)
	return p, nil
}

// ensureStream creates or updates the confirmation stream.
func (p *JetStreamPublisher) ensureStream(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := p.js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	p.logger.Info("creating JetStream stream", "stream", StreamName)
	_, err := p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Confirmation outcomes of submitted transactions",
		Subjects:    []string{SubjectPrefix + ".*"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      StreamRetention,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// PublishConfirmation publishes event on its cluster subject. Repeats of
// the same signature and state are deduplicated by the server.
func (p *JetStreamPublisher) PublishConfirmation(ctx context.Context, event *ConfirmationEvent) error {
	subject := Subject(event.Cluster)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal confirmation event: %w", err)
	}

	// Signature and state form the message ID; the server drops duplicates.
	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(event.Signature+":"+string(event.State))); err != nil {
		return fmt.Errorf("failed to publish confirmation: %w", err)
	}

	p.logger.Debug("published confirmation event",
		"subject", subject,
		"signature", event.Signature,
		"state", event.State,
	)
	return nil
}

// Close closes the NATS connection.
func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
		p.logger.Info("NATS publisher closed")
	}
	return nil
}
