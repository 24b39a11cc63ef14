package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const DefaultKafkaTopic = "vaultboard.access-logs"

// Producer is the part of *kgo.Client the sink uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaSink publishes access logs as JSON, keyed by entry id so one
// entry's events stay ordered within a partition.
type KafkaSink struct {
	producer Producer
	topic    string
}

func NewKafkaSink(p Producer, topic string) *KafkaSink {
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	return &KafkaSink{producer: p, topic: topic}
}

func (k *KafkaSink) Write(ctx context.Context, logs []models.AccessLog) error {
	if len(logs) == 0 {
		return nil
	}
	recs := make([]*kgo.Record, 0, len(logs))
	for _, l := range logs {
		b, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("encode access log %s: %w", l.ID, err)
		}
		recs = append(recs, &kgo.Record{Topic: k.topic, Key: []byte(l.EntryID), Value: b})
	}
	if err := k.producer.ProduceSync(ctx, recs...).FirstErr(); err != nil {
		return fmt.Errorf("produce access logs: %w", err)
	}
	return nil
}

// NewKafkaClient connects a franz-go client producing to topic by default.
func NewKafkaClient(brokers []string, topic string) (*kgo.Client, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	return kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
}

// EnsureTopic creates topic if it does not exist yet.
func EnsureTopic(ctx context.Context, cl *kgo.Client, topic string, partitions int32, replication int16) error {
	adm := kadm.NewClient(cl)
	resp, err := adm.CreateTopics(ctx, partitions, replication, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}
