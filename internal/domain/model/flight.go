package model

// FlightData is the part of the incoming flight-data document the director
// cares about.
type FlightData struct {
	AssignedGate   string // raw gate string from ATC, e.g. "Terminal 1 Gate 5A"
	Airport        string // ICAO code of the destination, where the gate is
	CurrentAirport string // ICAO code of the airport the aircraft is at, if any
	Origin         string
	Airline        string
	FlightNumber   string
}

// Empty reports whether no gate has been assigned.
func (f FlightData) Empty() bool { return f.AssignedGate == "" }
