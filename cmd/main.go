package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ukydev/vehicle-maintenance/internal/auth"
	"github.com/ukydev/vehicle-maintenance/internal/db"
	"github.com/ukydev/vehicle-maintenance/internal/handlers"
	"github.com/ukydev/vehicle-maintenance/internal/middleware"
	"github.com/ukydev/vehicle-maintenance/internal/telemetry"
)

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// newRouter wires every API route onto a mux. Auth and rate limiting are
// applied around the whole mux so new routes are covered by default.
func newRouter(authHandler *handlers.AuthHandler, programHandler *handlers.ProgramHandler, vehicleHandler *handlers.VehicleHandler, maintenanceHandler *handlers.MaintenanceHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", healthHandler)

	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/register", authHandler.Register)
	mux.HandleFunc("/api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			authHandler.GetProfile(w, r)
		case http.MethodPut:
			authHandler.UpdateProfile(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/auth/password", authHandler.ChangePassword)

	mux.HandleFunc("/api/programs", programHandler.Programs)
	mux.HandleFunc("/api/programs/conflicts", programHandler.CheckConflicts)
	mux.HandleFunc("/api/programs/conflicts/resolve", programHandler.ResolveConflicts)
	mux.HandleFunc("/api/programs/", programHandler.ProgramByID)

	mux.HandleFunc("/api/vehicles", vehicleHandler.Vehicles)
	mux.HandleFunc("/api/vehicles/", vehicleHandler.VehicleByID)

	mux.HandleFunc("/api/records", maintenanceHandler.Records)
	mux.HandleFunc("/api/records/", maintenanceHandler.RecordByID)

	return mux
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})
	if os.Getenv("LOG_LEVEL") == "debug" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	client, err := db.ConnectMongo()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	logrus.Info("Connected to MongoDB")

	database := db.Database(client)
	users := &db.MongoUserCollection{Collection: database.Collection("users")}
	programs := &db.MongoProgramCollection{Collection: database.Collection("programs")}
	vehicles := &db.MongoVehicleCollection{Collection: database.Collection("vehicles")}
	records := &db.MongoMaintenanceCollection{Collection: database.Collection("maintenance_records")}

	authService, err := auth.NewService()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize auth service")
	}

	authHandler := handlers.NewAuthHandler(authService, users)
	programHandler := handlers.NewProgramHandler(programs, vehicles)
	vehicleHandler := handlers.NewVehicleHandler(vehicles)
	maintenanceHandler := handlers.NewMaintenanceHandler(records, vehicles)

	mux := newRouter(authHandler, programHandler, vehicleHandler, maintenanceHandler)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimitMiddleware()
	handler := rateLimiter.RateLimit(100, 60)(authMiddleware.Authenticate(mux))

	// Odometer ingest is optional, the API works without a broker.
	if os.Getenv("MQTT_BROKER") != "" {
		mqttClient, err := telemetry.ConnectBroker("maintenance-api")
		if err != nil {
			logrus.WithError(err).Warn("Failed to connect to MQTT broker, odometer ingest disabled")
		} else {
			ingestor := telemetry.NewIngestor(vehicles)
			if err := ingestor.Subscribe(mqttClient); err != nil {
				logrus.WithError(err).Warn("Failed to subscribe to odometer topic")
			} else {
				logrus.WithField("topic", telemetry.OdometerTopic).Info("Odometer ingest started")
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logrus.WithField("port", port).Info("HTTP server listening")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		logrus.WithError(err).Fatal("HTTP server stopped")
	}
}
