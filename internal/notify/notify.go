package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"indecstat/internal/model"
)

// Config 采集结果通知配置
type Config struct {
	URL        string `toml:"url"`         // 为空时不发送
	Exchange   string `toml:"exchange"`    // topic exchange
	RoutingKey string `toml:"routing_key"` // 前缀，完整路由键为 <prefix>.<indicator>.<status>
}

// Envelope 消息信封
type Envelope struct {
	Domain    string          `json:"domain"`
	Entity    string          `json:"entity"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	Payload   model.RunReport `json:"payload"`
}

// Nop 不发送任何通知
type Nop struct{}

func (Nop) Publish(context.Context, model.RunReport) error { return nil }
func (Nop) Close() error                                   { return nil }

// Publisher 将 RunReport 发布到 RabbitMQ topic exchange
type Publisher struct {
	cfg    Config
	conn   *amqp.Connection
	ch     *amqp.Channel
	mu     sync.Mutex
	logger *slog.Logger
}

// Dial 连接 RabbitMQ 并声明 exchange（幂等）
func Dial(cfg Config, logger *slog.Logger) (*Publisher, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info("[Notify] connected", "exchange", cfg.Exchange, "routing_key", cfg.RoutingKey)
	return &Publisher{cfg: cfg, conn: conn, ch: ch, logger: logger}, nil
}

func (c Config) withDefaults() Config {
	if c.Exchange == "" {
		c.Exchange = "indec.events"
	}
	if c.RoutingKey == "" {
		c.RoutingKey = "indec"
	}
	return c
}

// RoutingKey 如 "indec.labor.partial"
func RoutingKey(prefix string, report model.RunReport) string {
	return fmt.Sprintf("%s.%s.%s", prefix, report.Indicator, report.Status)
}

// Encode 报告 -> 消息体
func Encode(report model.RunReport, now time.Time) ([]byte, error) {
	body, err := json.Marshal(Envelope{
		Domain:    "indec",
		Entity:    report.Indicator,
		Timestamp: now.UTC(),
		Source:    "indecstat",
		Payload:   report,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return body, nil
}

// Publish 发布一次采集报告
func (p *Publisher) Publish(ctx context.Context, report model.RunReport) error {
	now := time.Now()
	body, err := Encode(report, now)
	if err != nil {
		return err
	}

	// amqp.Channel 不支持并发发布
	p.mu.Lock()
	defer p.mu.Unlock()

	key := RoutingKey(p.cfg.RoutingKey, report)
	err = p.ch.PublishWithContext(ctx,
		p.cfg.Exchange, // exchange
		key,            // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    report.RunID,
			Timestamp:    now,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	p.logger.Debug("[Notify] published", "routing_key", key, "run_id", report.RunID)
	return nil
}

// Close 关闭通道与连接
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
