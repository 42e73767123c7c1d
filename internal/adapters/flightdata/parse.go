// Package flightdata follows the ATC client's flight.json and reports the
// fields the director needs whenever they change.
package flightdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/gatedirector/internal/domain/model"
)

// ErrMalformed is returned for a document that is not a JSON object.
var ErrMalformed = errors.New("malformed flight data")

type document struct {
	FlightDetails struct {
		CurrentAirport text `json:"current_airport"`
		CurrentFlight  struct {
			Destination  text `json:"flight_destination"`
			Origin       text `json:"flight_origin"`
			Airline      text `json:"airline"`
			FlightNumber text `json:"flight_number"`
			AssignedGate text `json:"assigned_gate"`
		} `json:"current_flight"`
	} `json:"flight_details"`
}

// text accepts a JSON string, number or null.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected string or number: %w", err)
		}
		*t = text(n.String())
	}
	return nil
}

func (t text) trimmed() string { return strings.TrimSpace(string(t)) }

// Parse extracts flight data from raw. Missing sections yield empty fields.
func Parse(raw []byte) (model.FlightData, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.FlightData{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	fd, cf := doc.FlightDetails, doc.FlightDetails.CurrentFlight
	return model.FlightData{
		AssignedGate:   cf.AssignedGate.trimmed(),
		Airport:        strings.ToUpper(cf.Destination.trimmed()),
		CurrentAirport: strings.ToUpper(fd.CurrentAirport.trimmed()),
		Origin:         strings.ToUpper(cf.Origin.trimmed()),
		Airline:        cf.Airline.trimmed(),
		FlightNumber:   cf.FlightNumber.trimmed(),
	}, nil
}
