package query_test

import (
	"testing"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/internal/query"
)

func TestProjectOneIncludeKeepsIDAndNamedFields(t *testing.T) {
	tour := domain.Tour{ID: 7, Name: "The Forest Hiker", Price: 397, Duration: 5}

	m, err := query.ProjectOne(tour, []string{"name", "price"})
	if err != nil {
		t.Fatalf("ProjectOne: %v", err)
	}

	if m["id"] != float64(7) {
		t.Errorf("id should always survive projection, got %v", m["id"])
	}
	if m["name"] != "The Forest Hiker" || m["price"] != float64(397) {
		t.Errorf("named fields missing: %v", m)
	}
	if _, ok := m["duration"]; ok {
		t.Errorf("duration should have been projected away: %v", m)
	}
}

func TestProjectOneDefaultExclude(t *testing.T) {
	tour := domain.Tour{ID: 7, Name: "The Forest Hiker", PrivateTour: true}

	m, err := query.ProjectOne(tour, nil, "privateTour")
	if err != nil {
		t.Fatalf("ProjectOne: %v", err)
	}

	if _, ok := m["privateTour"]; ok {
		t.Errorf("privateTour should be hidden by default: %v", m)
	}
	if m["name"] != "The Forest Hiker" {
		t.Errorf("other fields must survive: %v", m)
	}
}

func TestProjectOneExplicitSelectOverridesExclude(t *testing.T) {
	tour := domain.Tour{ID: 7, PrivateTour: true}

	m, err := query.ProjectOne(tour, []string{"privateTour"}, "privateTour")
	if err != nil {
		t.Fatalf("ProjectOne: %v", err)
	}
	if m["privateTour"] != true {
		t.Errorf("explicitly selected field should be visible: %v", m)
	}
}

func TestProjectKeepsDocumentOrder(t *testing.T) {
	tours := []domain.Tour{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}

	out, err := query.Project(tours, nil)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if len(out) != 2 || out[0]["name"] != "A" || out[1]["name"] != "B" {
		t.Errorf("unexpected projection: %v", out)
	}
}
