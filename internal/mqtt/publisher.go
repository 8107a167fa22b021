package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"tank-monitor/analytics/internal/domain"
)

type ClientConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// Publisher sends alert events to <prefix>/<group>/alerts for field
// devices and paging bridges.
type Publisher struct {
	client paho.Client
	prefix string
}

func NewPublisher(cfg ClientConfig) (*Publisher, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetOnConnectHandler(connectHandler)
	opts.SetConnectionLostHandler(connectLostHandler)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	log.Println("mqtt: connected to broker:", cfg.Broker)

	return newPublisher(client, cfg.TopicPrefix), nil
}

func newPublisher(client paho.Client, prefix string) *Publisher {
	return &Publisher{client: client, prefix: prefix}
}

func (p *Publisher) Topic(group string) string {
	if group == "" {
		group = "_"
	}
	return fmt.Sprintf("%s/%s/alerts", p.prefix, group)
}

func (p *Publisher) PublishAlert(ctx context.Context, a domain.Alert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	token := p.client.Publish(p.Topic(a.Group), 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish alert for %s: %w", a.TankID, err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
	log.Println("mqtt: disconnected")
}

var connectHandler paho.OnConnectHandler = func(client paho.Client) {
	log.Println("mqtt: connection established")
}

var connectLostHandler paho.ConnectionLostHandler = func(client paho.Client, err error) {
	log.Printf("mqtt: connection lost: %v", err)
}
