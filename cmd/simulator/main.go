package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// Simulates one driver's day against a running fleet-ledger API: the
// admin registers a truck and a driver account, the driver starts a
// trip, logs expenses and advances along the way, and closes the trip.

var client = &http.Client{Timeout: 10 * time.Second}

type session struct {
	Token string `json:"token"`
}

type trip struct {
	ID           string  `json:"id"`
	VehicleID    string  `json:"vehicle_id"`
	StartKm      float64 `json:"start_km"`
	AdvanceTotal float64 `json:"advance_total"`
	Status       string  `json:"status"`
}

func call(method, url, token string, body interface{}, out interface{}) (int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, err
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func main() {
	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	adminIdentity := os.Getenv("ADMIN_IDENTITY")
	if adminIdentity == "" {
		adminIdentity = "admin@mainmast.com"
	}
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin-password"
	}
	plate := os.Getenv("PLATE")
	if plate == "" {
		plate = "KA01AB1234"
	}
	driverPassword := "driver-password"

	// 1. Admin login
	var admin session
	status, err := call("POST", apiURL+"/api/auth/login", "",
		map[string]string{"identity": adminIdentity, "password": adminPassword}, &admin)
	if err != nil || status != http.StatusOK {
		log.WithError(err).WithField("status", status).Fatal("admin login failed")
	}
	log.Info("admin logged in")

	// 2. Register the truck and the driver account (409s mean they exist)
	status, err = call("POST", apiURL+"/api/vehicles", admin.Token,
		map[string]string{"plate_number": plate, "make": "Tata", "model": "Signa 2818"}, nil)
	if err != nil {
		log.WithError(err).Fatal("vehicle create failed")
	}
	log.WithFields(log.Fields{"plate": plate, "status": status}).Info("vehicle ensured")

	status, err = call("POST", apiURL+"/api/auth/register", admin.Token,
		map[string]string{"plate": plate, "password": driverPassword}, nil)
	if err != nil {
		log.WithError(err).Fatal("driver registration failed")
	}
	log.WithField("status", status).Info("driver account ensured")

	// 3. Driver login
	var driver session
	status, err = call("POST", apiURL+"/api/auth/login", "",
		map[string]string{"plate": plate, "password": driverPassword}, &driver)
	if err != nil || status != http.StatusOK {
		log.WithError(err).WithField("status", status).Fatal("driver login failed")
	}
	log.Info("driver logged in")

	// 4. Start a trip
	startKm := 45000 + rand.Float64()*1000
	var current trip
	status, err = call("POST", apiURL+"/api/trips", driver.Token, map[string]interface{}{
		"driver_name":     "Ravi",
		"from_location":   "Bangalore",
		"to_location":     "Chennai",
		"start_km":        startKm,
		"initial_advance": 2000,
	}, &current)
	if err != nil || status != http.StatusCreated {
		log.WithError(err).WithField("status", status).Fatal("start trip failed")
	}
	log.WithField("trip_id", current.ID).Info("trip started")

	// 5. Cash flows along the route
	tripURL := fmt.Sprintf("%s/api/trips/%s", apiURL, current.ID)

	expenses := []map[string]interface{}{
		{"category": "Diesel", "amount": 4000 + rand.Float64()*2000},
		{"category": "AdBlue", "amount": 300 + rand.Float64()*200},
		{"category": "Other", "subtype": "Toll", "amount": 150 + rand.Float64()*450},
		{"category": "Other", "subtype": "Custom", "description": "Parking", "amount": 100},
	}
	for _, expense := range expenses {
		status, err = call("POST", tripURL+"/expenses", driver.Token, expense, nil)
		if err != nil || status != http.StatusCreated {
			log.WithError(err).WithField("status", status).Fatal("record expense failed")
		}
	}
	log.WithField("count", len(expenses)).Info("expenses recorded")

	status, err = call("POST", tripURL+"/advances", driver.Token,
		map[string]float64{"amount": 1500}, &current)
	if err != nil || status != http.StatusOK {
		log.WithError(err).WithField("status", status).Fatal("record advance failed")
	}
	log.WithField("advance_total", current.AdvanceTotal).Info("advance recorded")

	// 6. Close the trip
	status, err = call("POST", tripURL+"/end", driver.Token, map[string]float64{
		"end_km":        startKm + 350,
		"total_freight": 25000,
		"driver_bata":   1500,
	}, &current)
	if err != nil || status != http.StatusOK {
		log.WithError(err).WithField("status", status).Fatal("end trip failed")
	}
	log.WithField("status_field", current.Status).Info("trip completed")

	// 7. Admin pulls the financial summary
	var summary map[string]interface{}
	status, err = call("GET", apiURL+"/api/reports/summary", admin.Token, nil, &summary)
	if err != nil || status != http.StatusOK {
		log.WithError(err).WithField("status", status).Fatal("summary failed")
	}
	log.WithFields(log.Fields{
		"trip_count": summary["trip_count"],
		"net_profit": summary["net_profit"],
	}).Info("summary fetched")
}
