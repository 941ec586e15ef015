package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const mqttTimeout = 5 * time.Second

// connectMQTT connects with auto-reconnect enabled and waits for the first
// connection.
func connectMQTT(broker, clientID string, logger *slog.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("mqtt connection lost", "err", err)
		}).
		SetOnConnectHandler(func(mqtt.Client) {
			logger.Info("mqtt connected", "broker", broker, "client_id", clientID)
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	return client, nil
}

// publishJSON marshals v and publishes it without waiting for the broker.
// Errors are reported asynchronously through the logger.
func publishJSON(client mqtt.Client, topic string, retained bool, v any, logger *slog.Logger) {
	payload, err := json.Marshal(v)
	if err != nil {
		logger.Error("json marshal failed", "topic", topic, "err", err)
		return
	}
	token := client.Publish(topic, 0, retained, payload)
	go func() {
		if token.WaitTimeout(mqttTimeout) && token.Error() != nil {
			logger.Warn("mqtt publish failed", "topic", topic, "err", token.Error())
		}
	}()
}

// subscribeJSON subscribes to topic and decodes every payload into a new T.
func subscribeJSON[T any](client mqtt.Client, topic string, logger *slog.Logger, fn func(T)) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var v T
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			logger.Warn("payload unmarshal failed", "topic", msg.Topic(), "err", err)
			return
		}
		fn(v)
	})
	if !token.WaitTimeout(mqttTimeout) {
		return fmt.Errorf("subscribe %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	logger.Info("subscribed", "topic", topic)
	return nil
}
