package geo

import (
	"math"
	"testing"

	"github.com/kilianp07/feederwatch/core/model"
)

func TestDistanceZero(t *testing.T) {
	p := model.Coordinate{Lat: 23.8103, Lon: 91.2514}
	if d := Distance(p, p); d != 0 {
		t.Fatalf("expected 0 got %f", d)
	}
}

func TestDistanceKnown(t *testing.T) {
	// one degree of latitude along a meridian
	d := Distance(model.Coordinate{Lat: 0, Lon: 0}, model.Coordinate{Lat: 1, Lon: 0})
	want := EarthRadiusKM * math.Pi / 180
	if math.Abs(d-want) > 1e-9 {
		t.Fatalf("expected %f got %f", want, d)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := model.Coordinate{Lat: 23.8103, Lon: 91.2514}
	b := model.Coordinate{Lat: 23.78, Lon: 91.23}
	if math.Abs(Distance(a, b)-Distance(b, a)) > 1e-12 {
		t.Fatalf("distance not symmetric")
	}
	// roughly 3.9 km apart
	if d := Distance(a, b); d < 3 || d > 5 {
		t.Fatalf("unexpected distance %f", d)
	}
}

func TestDistanceAntipodal(t *testing.T) {
	d := Distance(model.Coordinate{Lat: 0, Lon: 0}, model.Coordinate{Lat: 0, Lon: 180})
	if math.Abs(d-EarthRadiusKM*math.Pi) > 1e-6 {
		t.Fatalf("antipodal distance %f", d)
	}
}
