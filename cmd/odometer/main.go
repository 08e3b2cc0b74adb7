package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/vehicle-maintenance/internal/models"
	"github.com/ukydev/vehicle-maintenance/internal/telemetry"
)

// VehicleState tracks the simulated mileage of a single vehicle between ticks.
type VehicleState struct {
	VehicleID  string
	OdometerKm float64
	SpeedKmh   float64
}

func readingFromState(s *VehicleState) models.OdometerReading {
	return models.OdometerReading{
		VehicleID:  s.VehicleID,
		Odometer:   s.OdometerKm,
		RecordedAt: time.Now(),
	}
}

func odometerTopic(vehicleID string) string {
	return fmt.Sprintf("vehicles/%s/odometer", vehicleID)
}

func publishReading(client mqtt.Client, reading models.OdometerReading) {
	data, err := json.Marshal(reading)
	if err != nil {
		log.WithError(err).Error("Failed to marshal odometer reading")
		return
	}
	token := client.Publish(odometerTopic(reading.VehicleID), 1, false, data)
	if token.Wait() && token.Error() != nil {
		log.WithError(token.Error()).Error("Failed to publish odometer reading")
		return
	}
	log.WithFields(log.Fields{
		"vehicle_id": reading.VehicleID,
		"odometer":   reading.Odometer,
	}).Info("Published odometer reading")
}

func simulateVehicle(client mqtt.Client, s *VehicleState, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for range tick.C {
		// small speed noise
		s.SpeedKmh += (rand.Float64()*2 - 1) * 1.5
		if s.SpeedKmh < 15 {
			s.SpeedKmh = 15
		}
		if s.SpeedKmh > 90 {
			s.SpeedKmh = 90
		}

		s.OdometerKm += s.SpeedKmh * (interval.Seconds() / 3600.0)

		publishReading(client, readingFromState(s))
	}
}

func main() {
	vehicleIDs := strings.Split(os.Getenv("VEHICLE_IDS"), ",")
	ids := make([]string, 0, len(vehicleIDs))
	for _, id := range vehicleIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		log.Error("VEHICLE_IDS not set. Provide a comma-separated list of vehicle ids. Exiting.")
		return
	}

	interval := 2 * time.Second
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			interval = time.Duration(n) * time.Second
		}
	}

	client, err := telemetry.ConnectBroker("odometer-simulator")
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MQTT broker")
	}

	log.WithFields(log.Fields{
		"vehicles": len(ids),
		"interval": interval,
	}).Info("Starting odometer simulation")

	for _, id := range ids {
		state := &VehicleState{
			VehicleID:  id,
			OdometerKm: 10000 + rand.Float64()*90000,
			SpeedKmh:   30 + rand.Float64()*30,
		}
		go simulateVehicle(client, state, interval)
	}

	select {} // Block forever
}
