package schedule

import (
	"testing"
	"time"

	"github.com/mobiclear/mobiclear/internal/model"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.March, day, hour, minute, 0, 0, time.UTC)
}

// Distance 777, airliner duration 2h, train duration 13h.
var farApart = model.TripProvision{
	From:      model.GeoPoint{Lat: 0, Lng: 0},
	To:        model.GeoPoint{Lat: 7, Lng: 0},
	Transport: model.TransportAirliner,
}

func TestDistanceAndDuration(t *testing.T) {
	if d := Distance(farApart.From, farApart.To); d != 777 {
		t.Fatalf("distance = %d, want 777", d)
	}
	if d := Duration(farApart.From, farApart.To, model.TransportAirliner); d != 2 {
		t.Fatalf("airliner duration = %d, want 2", d)
	}
	if d := Duration(farApart.From, farApart.To, model.TransportTrain); d != 13 {
		t.Fatalf("train duration = %d, want 13", d)
	}
}

func TestPrice(t *testing.T) {
	trip := farApart
	if p := Price(trip); p != 1+777*3 {
		t.Fatalf("airliner price = %d, want %d", p, 1+777*3)
	}
	trip.Transport = model.TransportTaxi
	if p := Price(trip); p != 1+777*12 {
		t.Fatalf("taxi price = %d, want %d", p, 1+777*12)
	}
}

func TestFreeScheduleExactWindow(t *testing.T) {
	// Taxi over distance 166 takes 1+166/40 = 5 hours; window is exactly 5h.
	trip := model.TripProvision{
		From:         model.GeoPoint{Lat: 0.5, Lng: 2},
		To:           model.GeoPoint{Lat: 2, Lng: 2},
		DepartAfter:  at(10, 9, 0),
		ArriveBefore: at(10, 14, 0),
		Transport:    model.TransportTaxi,
	}
	got := FreeSchedule{}.Windows(trip)
	if len(got) != 1 {
		t.Fatalf("expected exactly one window, got %d", len(got))
	}
	if !got[0].Departure.Equal(trip.DepartAfter) || !got[0].Arrival.Equal(trip.ArriveBefore) {
		t.Fatalf("window %v does not equal the request", got[0])
	}
}

func TestFreeScheduleMarginalPair(t *testing.T) {
	trip := model.TripProvision{
		From:         model.GeoPoint{Lat: 0.5, Lng: 2},
		To:           model.GeoPoint{Lat: 2, Lng: 2},
		DepartAfter:  at(10, 9, 0),
		ArriveBefore: at(10, 20, 0),
		Transport:    model.TransportTaxi,
	}
	got := FreeSchedule{}.Windows(trip)
	if len(got) != 2 {
		t.Fatalf("expected two marginal windows, got %d", len(got))
	}
	if !got[0].Departure.Equal(at(10, 9, 0)) || !got[0].Arrival.Equal(at(10, 14, 0)) {
		t.Fatalf("early window = %v", got[0])
	}
	if !got[1].Departure.Equal(at(10, 15, 0)) || !got[1].Arrival.Equal(at(10, 20, 0)) {
		t.Fatalf("late window = %v", got[1])
	}
}

func TestFreeScheduleTooNarrow(t *testing.T) {
	trip := model.TripProvision{
		From:         model.GeoPoint{Lat: 0.5, Lng: 2},
		To:           model.GeoPoint{Lat: 2, Lng: 2},
		DepartAfter:  at(10, 9, 0),
		ArriveBefore: at(10, 13, 0),
		Transport:    model.TransportTaxi,
	}
	if got := (FreeSchedule{}).Windows(trip); got != nil {
		t.Fatalf("expected no windows, got %v", got)
	}
}

func TestStrictScheduleWithinDay(t *testing.T) {
	trip := farApart
	trip.DepartAfter = at(10, 7, 0)
	trip.ArriveBefore = at(10, 21, 30)
	got := StrictSchedule{Hours: []int{8, 14, 20}}.Windows(trip)
	if len(got) != 2 {
		t.Fatalf("expected exactly 2 windows, got %d: %v", len(got), got)
	}
	if !got[0].Departure.Equal(at(10, 8, 0)) || !got[0].Arrival.Equal(at(10, 10, 0)) {
		t.Fatalf("first window = %v", got[0])
	}
	if !got[1].Departure.Equal(at(10, 14, 0)) || !got[1].Arrival.Equal(at(10, 16, 0)) {
		t.Fatalf("second window = %v", got[1])
	}
}

func TestStrictScheduleNoDepartureHours(t *testing.T) {
	// A zero-value schedule has nothing to offer and must not spin across
	// days looking for a departure.
	trip := farApart
	trip.DepartAfter = at(10, 7, 0)
	trip.ArriveBefore = at(10, 21, 30)
	if got := (StrictSchedule{}).Windows(trip); got != nil {
		t.Fatalf("expected no windows, got %v", got)
	}
}

func TestStrictScheduleDayRollover(t *testing.T) {
	// Departing after the last flight of the day rolls to tomorrow, where
	// earlier hours than the requested one are allowed again.
	trip := farApart
	trip.DepartAfter = at(10, 21, 0)
	trip.ArriveBefore = at(11, 11, 0)
	got := StrictSchedule{Hours: []int{8, 14, 20}}.Windows(trip)
	if len(got) != 1 {
		t.Fatalf("expected one window, got %d: %v", len(got), got)
	}
	if !got[0].Departure.Equal(at(11, 8, 0)) || !got[0].Arrival.Equal(at(11, 10, 0)) {
		t.Fatalf("window = %v", got[0])
	}
}

func TestBusinessHoursClipsToOpening(t *testing.T) {
	// Bike over distance 166 takes 1+166/12 = 14 hours; it cannot fit a
	// 9-to-21 business day, so nothing is offered.
	trip := model.TripProvision{
		From:         model.GeoPoint{Lat: 0.5, Lng: 2},
		To:           model.GeoPoint{Lat: 2, Lng: 2},
		DepartAfter:  at(10, 6, 0),
		ArriveBefore: at(10, 23, 0),
		Transport:    model.TransportBike,
	}
	if got := (BusinessHoursSchedule{OpenAt: 9, CloseAt: 21}).Windows(trip); got != nil {
		t.Fatalf("expected no windows, got %v", got)
	}
}

func TestBusinessHoursExactClippedWindow(t *testing.T) {
	// Car over distance 699 takes 1+699/50 = 14 hours, exactly 8:00-22:00.
	trip := model.TripProvision{
		From:         model.GeoPoint{Lat: 0, Lng: 0},
		To:           model.GeoPoint{Lat: 6.3, Lng: 0},
		DepartAfter:  at(10, 5, 0),
		ArriveBefore: at(10, 23, 30),
		Transport:    model.TransportCar,
	}
	got := BusinessHoursSchedule{OpenAt: 8, CloseAt: 22}.Windows(trip)
	if len(got) != 1 {
		t.Fatalf("expected one window, got %d: %v", len(got), got)
	}
	if !got[0].Departure.Equal(at(10, 8, 0)) || !got[0].Arrival.Equal(at(10, 22, 0)) {
		t.Fatalf("window = %v", got[0])
	}
}

func TestBusinessHoursMinimalWaiting(t *testing.T) {
	// Car over distance 111 takes 1+111/50 = 3 hours within a wide day.
	// Every hourly candidate arrives inside business hours, so all share
	// waiting time zero and all are returned.
	trip := model.TripProvision{
		From:         model.GeoPoint{Lat: 0, Lng: 0},
		To:           model.GeoPoint{Lat: 1, Lng: 0},
		DepartAfter:  at(10, 8, 0),
		ArriveBefore: at(10, 14, 0),
		Transport:    model.TransportCar,
	}
	got := BusinessHoursSchedule{OpenAt: 8, CloseAt: 22}.Windows(trip)
	if len(got) != 4 {
		t.Fatalf("expected 4 zero-waiting windows, got %d: %v", len(got), got)
	}
	for i, w := range got {
		wantDep := at(10, 8+i, 0)
		if !w.Departure.Equal(wantDep) || !w.Arrival.Equal(wantDep.Add(3*time.Hour)) {
			t.Fatalf("window %d = %v", i, w)
		}
	}
}
