package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/Prag-18/Reviva/pkg/log"
)

// channelToTopicAndKey converts a Redis-style channel to a Kafka topic and message key.
//
//	"chat:user:U1:message_created" → topic: "chat-message-created", key: "U1"
//	"chat:user:U2:message_read"    → topic: "chat-message-read",    key: "U2"
func channelToTopicAndKey(channel string) (topic, key string, err error) {
	// Expected format: {prefix}:user:{userID}:{event}
	parts := strings.Split(channel, ":")
	if len(parts) != 4 || parts[1] != "user" || parts[2] == "" {
		return "", "", fmt.Errorf("invalid channel format: %s", channel)
	}
	prefix := parts[0]
	userID := parts[2]
	suffix := parts[3]

	topic = prefix + "-" + strings.ReplaceAll(suffix, "_", "-")
	return topic, userID, nil
}

// KafkaPublisher implements Publisher using Apache Kafka.
type KafkaPublisher struct {
	producer *kafka.Producer
	config   KafkaConfig
	doneCh   chan struct{}
}

// NewKafkaPublisher creates a new Kafka-based publisher.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	kp := &KafkaPublisher{
		producer: p,
		config:   cfg,
		doneCh:   make(chan struct{}),
	}

	go kp.deliveryReportHandler()

	if err := kp.ensureTopics(); err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("failed to ensure kafka topics (may already exist)")
	}

	return kp, nil
}

// ensureTopics creates the chat topics if they don't exist.
func (k *KafkaPublisher) ensureTopics() error {
	admin, err := kafka.NewAdminClientFromProducer(k.producer)
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	partitions := k.config.Partitions
	if partitions <= 0 {
		partitions = 4
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var specs []kafka.TopicSpecification
	for _, ch := range []string{ChannelMessageCreated, ChannelMessageRead} {
		topic, _, err := channelToTopicAndKey(fmt.Sprintf(ch, "_"))
		if err != nil {
			return err
		}
		specs = append(specs, kafka.TopicSpecification{
			Topic:             topic,
			NumPartitions:     partitions,
			ReplicationFactor: 1,
		})
	}

	results, err := admin.CreateTopics(ctx, specs)
	if err != nil {
		return fmt.Errorf("failed to create topics: %w", err)
	}

	for _, r := range results {
		if r.Error.Code() != kafka.ErrNoError && r.Error.Code() != kafka.ErrTopicAlreadyExists {
			l := log.L()
			l.Warn().Str("topic", r.Topic).Str("error", r.Error.String()).Msg("failed to create topic")
		}
	}

	return nil
}

// deliveryReportHandler processes delivery reports from the producer.
func (k *KafkaPublisher) deliveryReportHandler() {
	for e := range k.producer.Events() {
		if ev, ok := e.(*kafka.Message); ok && ev.TopicPartition.Error != nil {
			l := log.L()
			l.Error().Err(ev.TopicPartition.Error).Msg("kafka delivery failed")
		}
	}
	close(k.doneCh)
}

// Publish publishes an event to the specified channel (converted to Kafka topic + key).
func (k *KafkaPublisher) Publish(ctx context.Context, channel string, event *Event) error {
	topic, key, err := channelToTopicAndKey(channel)
	if err != nil {
		return fmt.Errorf("failed to parse channel: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(key),
		Value: data,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	return nil
}

// Close flushes pending messages and closes the producer.
func (k *KafkaPublisher) Close() error {
	k.producer.Flush(5000)
	k.producer.Close()
	<-k.doneCh
	return nil
}
