package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/vehicle-maintenance/internal/db"
	"github.com/ukydev/vehicle-maintenance/internal/models"
)

// OdometerTopic is the wildcard topic odometer readings are published on.
// The vehicle id lives in the payload, not the topic segment, so messages
// stay self-describing.
const OdometerTopic = "vehicles/+/odometer"

// ConnectBroker connects to the MQTT broker named by MQTT_BROKER.
func ConnectBroker(clientID string) (mqtt.Client, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		broker = "tcp://mosquitto:1883"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, token.Error())
	}
	return client, nil
}

// Ingestor applies published odometer readings to vehicle documents.
type Ingestor struct {
	vehicles db.VehicleCollection
	timeout  time.Duration
}

// NewIngestor creates an ingestor writing through the given collection.
func NewIngestor(vehicles db.VehicleCollection) *Ingestor {
	return &Ingestor{
		vehicles: vehicles,
		timeout:  10 * time.Second,
	}
}

// HandleReading decodes and applies a single odometer message. Stale readings
// are dropped by the store's monotonic guard, so redelivered messages are
// harmless.
func (i *Ingestor) HandleReading(ctx context.Context, payload []byte) error {
	var reading models.OdometerReading
	if err := json.Unmarshal(payload, &reading); err != nil {
		return fmt.Errorf("invalid odometer payload: %w", err)
	}
	if reading.VehicleID == "" {
		return fmt.Errorf("odometer reading missing vehicle_id")
	}
	if reading.Odometer <= 0 {
		return fmt.Errorf("odometer reading for %s is not positive", reading.VehicleID)
	}
	if reading.RecordedAt.IsZero() {
		reading.RecordedAt = time.Now()
	}

	if err := i.vehicles.UpdateOdometer(ctx, reading.VehicleID, reading); err != nil {
		return fmt.Errorf("apply odometer reading for %s: %w", reading.VehicleID, err)
	}
	return nil
}

// Subscribe starts consuming odometer readings. Failures on individual
// messages are logged and dropped; the subscription stays up.
func (i *Ingestor) Subscribe(client mqtt.Client) error {
	token := client.Subscribe(OdometerTopic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
		defer cancel()

		if err := i.HandleReading(ctx, msg.Payload()); err != nil {
			log.WithError(err).WithField("topic", msg.Topic()).
				Warn("Dropped odometer reading")
			return
		}
		log.WithField("topic", msg.Topic()).Debug("Applied odometer reading")
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", OdometerTopic, token.Error())
	}
	return nil
}
