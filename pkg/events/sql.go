package events

import (
	"context"
	"database/sql"
	"fmt"

	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ghuser/medshelf/pkg/config"
	"github.com/ghuser/medshelf/pkg/logger"
)

// forwarderTopic is the internal outbox topic drained by the forwarder.
const forwarderTopic = "_forwarder_queue"

// NewSQLEventBus opens its own PostgreSQL connection from cfg and builds a
// Watermill SQL publisher and subscriber. All instances sharing
// cfg.ServiceName form one consumer group, so each message is handled by
// one instance.
//
// Publishes go through the forwarder envelope: call StartForwarder in the
// process that should relay outbox rows to their target topics.
func NewSQLEventBus(cfg *config.Config, log logger.Logger) (*EventBus, error) {
	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("events: open db: %w", err)
	}

	wlog := &slogAdapter{log: log}

	pub, err := watermillsql.NewPublisher(
		db,
		watermillsql.PublisherConfig{
			SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
			AutoInitializeSchema: true,
		},
		wlog,
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("events: new publisher: %w", err)
	}

	sub, err := newSQLSubscriber(db, cfg.ServiceName+"-consumer", wlog)
	if err != nil {
		_ = pub.Close()
		_ = db.Close()
		return nil, fmt.Errorf("events: new subscriber: %w", err)
	}

	return &EventBus{
		publisher:  forwarder.NewPublisher(pub, forwarder.PublisherConfig{ForwarderTopic: forwarderTopic}),
		subscriber: sub,
		db:         db,
		log:        log,
		txPub: func(tx *sql.Tx) (message.Publisher, error) {
			// Tables exist once the bus is up, so no schema init inside the tx.
			txPub, err := watermillsql.NewPublisher(
				tx,
				watermillsql.PublisherConfig{
					SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
					AutoInitializeSchema: false,
				},
				wlog,
			)
			if err != nil {
				return nil, fmt.Errorf("events: new tx publisher: %w", err)
			}
			return forwarder.NewPublisher(txPub, forwarder.PublisherConfig{ForwarderTopic: forwarderTopic}), nil
		},
		fwdStart: func(ctx context.Context) (*forwarder.Forwarder, error) {
			return newSQLForwarder(db, wlog)
		},
	}, nil
}

func newSQLSubscriber(db *sql.DB, group string, wlog *slogAdapter) (*watermillsql.Subscriber, error) {
	return watermillsql.NewSubscriber(
		db,
		watermillsql.SubscriberConfig{
			SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
			OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
			InitializeSchema: true,
			ConsumerGroup:    group,
		},
		wlog,
	)
}

func newSQLForwarder(db *sql.DB, wlog *slogAdapter) (*forwarder.Forwarder, error) {
	fwdSub, err := newSQLSubscriber(db, "forwarder-consumer", wlog)
	if err != nil {
		return nil, fmt.Errorf("events: new forwarder subscriber: %w", err)
	}

	targetPub, err := watermillsql.NewPublisher(
		db,
		watermillsql.PublisherConfig{
			SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
			AutoInitializeSchema: true,
		},
		wlog,
	)
	if err != nil {
		_ = fwdSub.Close()
		return nil, fmt.Errorf("events: new forwarder target publisher: %w", err)
	}

	fwd, err := forwarder.NewForwarder(fwdSub, targetPub, wlog, forwarder.Config{
		ForwarderTopic: forwarderTopic,
	})
	if err != nil {
		_ = targetPub.Close()
		_ = fwdSub.Close()
		return nil, fmt.Errorf("events: create forwarder: %w", err)
	}
	return fwd, nil
}
