package models

import (
	"encoding/json"
	"testing"
)

func TestIsValidIntervalType(t *testing.T) {
	tests := []struct {
		name     string
		interval IntervalType
		expected bool
	}{
		{"mileage interval", IntervalMileage, true},
		{"time interval", IntervalTime, true},
		{"invalid interval", "fortnightly", false},
		{"empty interval", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidIntervalType(tt.interval)
			if result != tt.expected {
				t.Errorf("IsValidIntervalType(%s) = %v, want %v", tt.interval, result, tt.expected)
			}
		})
	}
}

func TestVehicle_Label(t *testing.T) {
	named := &Vehicle{Make: "Honda", Model: "Civic", Year: 2020, Nickname: "Daily Driver"}
	if got := named.Label(); got != "Daily Driver" {
		t.Errorf("Label() = %q, want nickname", got)
	}

	unnamed := &Vehicle{Make: "Honda", Model: "Civic", Year: 2020}
	if got := unnamed.Label(); got != "2020 Honda Civic" {
		t.Errorf("Label() = %q, want %q", got, "2020 Honda Civic")
	}
}

func TestUser_PasswordHashNotSerialized(t *testing.T) {
	user := User{Username: "testuser", PasswordHash: "secret-hash"}
	data, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) == "" {
		t.Fatal("empty marshal output")
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, leaked := out["password_hash"]; leaked {
		t.Error("password hash must not appear in JSON output")
	}
}
