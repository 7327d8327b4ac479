package schedule

import (
	"math"
	"time"

	"github.com/mobiclear/mobiclear/internal/model"
)

// Trip math. Distance is a weighted linear combination of coordinate
// deltas — a regional approximation, not geodesic. Durations are whole
// hours, prices integer currency units.

var speeds = map[model.TransportType]int{
	model.TransportAirliner: 750,
	model.TransportBike:     12,
	model.TransportCar:      50,
	model.TransportFerry:    25,
	model.TransportTaxi:     40,
	model.TransportTrain:    60,
}

var unitCosts = map[model.TransportType]int{
	model.TransportAirliner: 3,
	model.TransportBike:     1,
	model.TransportCar:      8,
	model.TransportFerry:    4,
	model.TransportTaxi:     12,
	model.TransportTrain:    3,
}

// Distance approximates the trip distance from coordinate deltas.
func Distance(from, to model.GeoPoint) int {
	return int(55.5*math.Abs(to.Lng-from.Lng) + 111.0*math.Abs(to.Lat-from.Lat))
}

// Duration returns the trip duration in whole hours, never zero.
func Duration(from, to model.GeoPoint, transport model.TransportType) int {
	return 1 + Distance(from, to)/speeds[transport]
}

// Price returns the base trip price, never zero.
func Price(trip model.TripProvision) int64 {
	return int64(1 + Distance(trip.From, trip.To)*unitCosts[trip.Transport])
}

// Window is one candidate departure/arrival pair.
type Window struct {
	Departure time.Time
	Arrival   time.Time
}

// Schedule produces candidate travel windows for a requested trip. A nil
// result means the request cannot be served.
type Schedule interface {
	Windows(trip model.TripProvision) []Window
}

// FreeSchedule models a service available around the clock, e.g. taxi.
type FreeSchedule struct{}

// Windows offers up to two marginal solutions: depart immediately and
// arrive early, or depart late and arrive just in time.
func (FreeSchedule) Windows(trip model.TripProvision) []Window {
	requested := int(trip.ArriveBefore.Sub(trip.DepartAfter).Hours())
	d := Duration(trip.From, trip.To, trip.Transport)
	if requested < d {
		return nil
	}
	if requested == d {
		return []Window{{Departure: trip.DepartAfter, Arrival: trip.ArriveBefore}}
	}
	span := time.Duration(d) * time.Hour
	return []Window{
		{Departure: trip.DepartAfter, Arrival: trip.DepartAfter.Add(span)},
		{Departure: trip.ArriveBefore.Add(-span), Arrival: trip.ArriveBefore},
	}
}

// StrictSchedule models fixed daily departures, e.g. airline or train.
type StrictSchedule struct {
	Hours []int // daily departure hours, ascending
}

// Windows enumerates every scheduled departure strictly after the requested
// hour (or any, once a day boundary is crossed), rolling across days, and
// stops at the first candidate arriving too late.
func (s StrictSchedule) Windows(trip model.TripProvision) []Window {
	if len(s.Hours) == 0 {
		return nil
	}
	d := Duration(trip.From, trip.To, trip.Transport)
	span := time.Duration(d) * time.Hour
	var result []Window
	for xtraDays := 0; ; xtraDays++ {
		for _, hour := range s.Hours {
			if xtraDays == 0 && hour <= trip.DepartAfter.Hour() {
				continue
			}
			departure := atHour(trip.DepartAfter, hour).AddDate(0, 0, xtraDays)
			arrival := departure.Add(span)
			if arrival.After(trip.ArriveBefore) {
				return result
			}
			result = append(result, Window{Departure: departure, Arrival: arrival})
		}
	}
}

// BusinessHoursSchedule models a service reachable only between OpenAt and
// CloseAt, e.g. car or bike rental.
type BusinessHoursSchedule struct {
	OpenAt  int
	CloseAt int
}

// Windows clips the requested interval to business hours, then offers the
// candidates whose waiting time until the service reopens is minimal.
func (s BusinessHoursSchedule) Windows(trip model.TripProvision) []Window {
	departure := trip.DepartAfter
	switch {
	case departure.Hour() < s.OpenAt:
		// not open yet, wait for business hours
		departure = atHour(departure, s.OpenAt)
	case departure.Hour() >= s.CloseAt:
		// already closed, wait for tomorrow morning
		departure = atHour(departure, s.OpenAt).AddDate(0, 0, 1)
	}
	arrival := trip.ArriveBefore
	switch {
	case arrival.Hour() >= s.CloseAt:
		// will be closed, plan to arrive earlier
		arrival = atHour(arrival, s.CloseAt)
	case arrival.Hour() < s.OpenAt:
		// not open yet, plan to arrive the previous evening
		arrival = atHour(arrival, s.CloseAt).AddDate(0, 0, -1)
	}

	window := int(arrival.Sub(departure).Hours())
	d := Duration(trip.From, trip.To, trip.Transport)
	if window < d {
		return nil
	}
	if window == d {
		return []Window{{Departure: departure, Arrival: arrival}}
	}
	return s.minimalWaiting(departure, arrival, d)
}

// minimalWaiting scans hourly offsets within the clipped window. Departures
// must fall within business hours; of those, all candidates sharing the
// minimal waiting-until-reopen time are returned in scan order.
func (s BusinessHoursSchedule) minimalWaiting(earliest, latest time.Time, d int) []Window {
	span := time.Duration(d) * time.Hour
	best := -1
	var result []Window
	for departure := earliest; ; departure = departure.Add(time.Hour) {
		arrival := departure.Add(span)
		if arrival.After(latest) {
			return result
		}
		if departure.Hour() < s.OpenAt || departure.Hour() > s.CloseAt {
			continue
		}
		var waiting int
		switch {
		case arrival.Hour() < s.OpenAt:
			waiting = s.OpenAt - arrival.Hour()
		case arrival.Hour() > s.CloseAt:
			waiting = 24 - arrival.Hour() + s.OpenAt
		}
		switch {
		case best == -1 || waiting < best:
			best = waiting
			result = []Window{{Departure: departure, Arrival: arrival}}
		case waiting == best:
			result = append(result, Window{Departure: departure, Arrival: arrival})
		}
	}
}

// atHour keeps the date and sets the wall clock to hour:00:00.
func atHour(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}
