package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	remoaircon "github.com/eivy/remo-aircon"
)

const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"

	publishTimeout = 10 * time.Second
)

// Config holds MQTT configuration
type Config struct {
	Broker           string
	Port             int
	Username         string
	Password         string
	ClientID         string
	BaseTopic        string
	HADiscoveryTopic string
}

// Client wraps MQTT client functionality
type Client struct {
	client      mqtt.Client
	config      Config
	topics      Topics
	commandChan chan Command
	logger      *zap.Logger
}

// Command represents a remote control command
type Command struct {
	ApplianceID string                 `json:"appliance_id"`
	Kind        remoaircon.CommandKind `json:"kind"`
	Value       string                 `json:"value"`
}

// CommandHandler defines the interface for handling MQTT commands
type CommandHandler interface {
	HandleCommand(ctx context.Context, cmd Command) error
}

// NewClient creates a new MQTT client
func NewClient(config Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	topics := NewTopics(config.BaseTopic, config.HADiscoveryTopic)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", config.Broker, config.Port))
	opts.SetClientID(config.ClientID)
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	opts.SetPingTimeout(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(10 * time.Second)
	opts.SetWill(topics.Availability(), PayloadOffline, 1, true)

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})

	c := &Client{
		config:      config,
		topics:      topics,
		commandChan: make(chan Command, 100),
		logger:      logger,
	}

	// availability is retained, so republish it after every reconnect
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		logger.Info("mqtt connected")
		token := client.Publish(topics.Availability(), 1, true, PayloadOnline)
		go func() {
			if token.WaitTimeout(publishTimeout) && token.Error() != nil {
				logger.Error("mqtt availability publish failed", zap.Error(token.Error()))
			}
		}()
	})

	c.client = mqtt.NewClient(opts)
	return c
}

// Connect establishes connection to MQTT broker
func (c *Client) Connect() error {
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	c.logger.Info("connected to mqtt broker", zap.String("broker", c.config.Broker), zap.Int("port", c.config.Port))
	return nil
}

// Disconnect marks the bridge offline and closes the connection
func (c *Client) Disconnect() {
	if c.client.IsConnected() {
		token := c.client.Publish(c.topics.Availability(), 1, true, PayloadOffline)
		token.WaitTimeout(publishTimeout)
	}
	c.client.Disconnect(250)
}

// SubscribeCommands subscribes to command topics and starts processing
func (c *Client) SubscribeCommands(ctx context.Context, handler CommandHandler) error {
	topic := c.topics.CommandSubscription()

	token := c.client.Subscribe(topic, 1, c.onCommandMessage)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to commands: %w", token.Error())
	}
	c.logger.Info("subscribed to mqtt command topic", zap.String("topic", topic))

	go c.processCommands(ctx, handler)
	return nil
}

func (c *Client) onCommandMessage(_ mqtt.Client, msg mqtt.Message) {
	id, kind, err := c.topics.ParseCommand(msg.Topic())
	if err != nil {
		c.logger.Warn("invalid command topic", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}
	cmd := Command{
		ApplianceID: id,
		Kind:        kind,
		Value:       strings.TrimSpace(string(msg.Payload())),
	}

	select {
	case c.commandChan <- cmd:
	default:
		c.logger.Warn("command channel full, dropping command", zap.String("appliance", id))
	}
}

// processCommands handles incoming commands from MQTT
func (c *Client) processCommands(ctx context.Context, handler CommandHandler) {
	for {
		select {
		case cmd := <-c.commandChan:
			if err := handler.HandleCommand(ctx, cmd); err != nil {
				c.logger.Error("failed to handle command",
					zap.String("appliance", cmd.ApplianceID), zap.Stringer("kind", cmd.Kind), zap.Error(err))
			} else {
				c.logger.Debug("handled command",
					zap.String("appliance", cmd.ApplianceID), zap.Stringer("kind", cmd.Kind), zap.String("value", cmd.Value))
			}
		case <-ctx.Done():
			return
		}
	}
}

// PublishState publishes the retained state of an aircon
func (c *Client) PublishState(state remoaircon.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return c.publish(c.topics.State(state.ID), true, payload)
}

// PublishDiscovery publishes the Home Assistant climate config of an aircon
func (c *Client) PublishDiscovery(state remoaircon.State) error {
	payload, err := json.Marshal(ClimateDiscoveryMessage(c.topics, state))
	if err != nil {
		return fmt.Errorf("failed to marshal discovery config: %w", err)
	}
	return c.publish(c.topics.Discovery(state.ID), true, payload)
}

func (c *Client) publish(topic string, retain bool, payload []byte) error {
	token := c.client.Publish(topic, 1, retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	c.logger.Debug("published", zap.String("topic", topic), zap.ByteString("payload", payload))
	return nil
}

// IsConnected reports whether the broker connection is up. Unlike paho's
// IsConnected it is false while an automatic reconnect is pending.
func (c *Client) IsConnected() bool {
	return c.client.IsConnectionOpen()
}
