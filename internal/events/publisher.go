package events

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/mainmast/fleet-ledger/internal/models"
)

// Publisher announces trip lifecycle transitions to interested
// subscribers (fleet dashboards). Publishing is best-effort: a failed
// announcement never fails the ledger operation it follows.
type Publisher interface {
	TripStarted(trip *models.Trip)
	TripCompleted(trip *models.Trip)
	Close()
}

// TripEvent is the wire payload published for a lifecycle transition.
type TripEvent struct {
	Event     string            `json:"event"`
	TripID    string            `json:"trip_id"`
	VehicleID string            `json:"vehicle_id"`
	Status    models.TripStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
}

// TopicForVehicle builds the MQTT topic a vehicle's trip events land on.
func TopicForVehicle(vehicleID string) string {
	return fmt.Sprintf("fleet/trips/%s", vehicleID)
}

// nopPublisher drops all events. Used when no broker is configured.
type nopPublisher struct{}

// Nop returns a publisher that discards all events.
func Nop() Publisher { return nopPublisher{} }

func (nopPublisher) TripStarted(*models.Trip)   {}
func (nopPublisher) TripCompleted(*models.Trip) {}
func (nopPublisher) Close()                     {}

// MQTTPublisher publishes trip events to an MQTT broker.
type MQTTPublisher struct {
	client mqtt.Client
}

// NewMQTTPublisher connects to the broker and returns a publisher.
func NewMQTTPublisher(broker, clientID string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", token.Error())
	}
	return &MQTTPublisher{client: client}, nil
}

// TripStarted announces a trip opening.
func (p *MQTTPublisher) TripStarted(trip *models.Trip) {
	p.publish("trip_started", trip)
}

// TripCompleted announces a terminal trip close.
func (p *MQTTPublisher) TripCompleted(trip *models.Trip) {
	p.publish("trip_completed", trip)
}

// Close disconnects from the broker, allowing in-flight messages to drain.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

func (p *MQTTPublisher) publish(event string, trip *models.Trip) {
	payload, err := json.Marshal(TripEvent{
		Event:     event,
		TripID:    trip.ID.Hex(),
		VehicleID: trip.VehicleID,
		Status:    trip.Status,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.WithError(err).Error("failed to marshal trip event")
		return
	}

	token := p.client.Publish(TopicForVehicle(trip.VehicleID), 0, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.WithError(token.Error()).WithFields(log.Fields{
				"event":   event,
				"trip_id": trip.ID.Hex(),
			}).Error("failed to publish trip event")
		}
	}()
}
