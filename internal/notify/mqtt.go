package notify

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTConfig MQTT 发布配置
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

// Event 发布到 MQTT 的事件
type Event struct {
	Kind      string `json:"kind"` // progress | error | refresh
	Item      string `json:"item,omitempty"`
	Done      int    `json:"done,omitempty"`
	Total     int    `json:"total,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher 抽出 paho 的发布能力，便于测试
type Publisher interface {
	Publish(topic string, qos byte, payload []byte) error
}

type pahoPublisher struct {
	client mqtt.Client
}

func (p *pahoPublisher) Publish(topic string, qos byte, payload []byte) error {
	token := p.client.Publish(topic, qos, false, payload)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// MQTTNotifier 把事件以 JSON 发布到 topic，UI 订阅后刷新
type MQTTNotifier struct {
	pub    Publisher
	topic  string
	qos    byte
	logger *zap.Logger
	now    func() time.Time
}

// ConnectMQTT 连接 broker 并返回通知器
func ConnectMQTT(cfg MQTTConfig, logger *zap.Logger) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return NewMQTTNotifier(&pahoPublisher{client: client}, cfg.Topic, cfg.QoS, logger), nil
}

// NewMQTTNotifier 使用已有的 Publisher
func NewMQTTNotifier(pub Publisher, topic string, qos byte, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{pub: pub, topic: topic, qos: qos, logger: logger, now: time.Now}
}

func (n *MQTTNotifier) Progress(done, total int, item string) {
	n.publish(Event{Kind: "progress", Item: item, Done: done, Total: total})
}

func (n *MQTTNotifier) Error(item string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	n.publish(Event{Kind: "error", Item: item, Message: msg})
}

func (n *MQTTNotifier) Refresh(reason string) {
	n.publish(Event{Kind: "refresh", Message: reason})
}

func (n *MQTTNotifier) publish(ev Event) {
	ev.Timestamp = n.now().Unix()
	payload, err := json.Marshal(ev)
	if err != nil {
		n.logger.Error("Failed to marshal MQTT event", zap.Error(err))
		return
	}
	// 发布失败只记录，不影响核心操作
	if err := n.pub.Publish(n.topic, n.qos, payload); err != nil {
		n.logger.Warn("Failed to publish MQTT event", zap.String("topic", n.topic), zap.String("kind", ev.Kind), zap.Error(err))
	}
}

// Close 断开 broker 连接（仅对 ConnectMQTT 创建的通知器有效）
func (n *MQTTNotifier) Close() {
	if p, ok := n.pub.(*pahoPublisher); ok {
		p.client.Disconnect(250)
	}
}
