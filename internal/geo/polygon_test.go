package geo

import (
	"testing"

	"fleetops-sim/internal/fleet"
)

var square = []fleet.Position{
	{Lat: 10, Lon: 10},
	{Lat: 10, Lon: 0},
	{Lat: 0, Lon: 0},
	{Lat: 0, Lon: 10},
}

func TestContains_InsideSquare(t *testing.T) {
	if !Contains(fleet.Position{Lat: 5, Lon: 5}, square) {
		t.Error("Expected (5,5) inside the unit square")
	}
}

func TestContains_OutsideSquare(t *testing.T) {
	outside := []fleet.Position{
		{Lat: 15, Lon: 15},
		{Lat: -1, Lon: 5},
		{Lat: 5, Lon: -1},
		{Lat: 11, Lon: 5},
	}
	for _, p := range outside {
		if Contains(p, square) {
			t.Errorf("Expected (%v,%v) outside the square", p.Lat, p.Lon)
		}
	}
}

func TestContains_DegeneratePolygons(t *testing.T) {
	if Contains(fleet.Position{Lat: 5, Lon: 5}, nil) {
		t.Error("Empty polygon should contain nothing")
	}
	segment := []fleet.Position{{Lat: 0, Lon: 0}, {Lat: 10, Lon: 10}}
	if Contains(fleet.Position{Lat: 5, Lon: 5}, segment) {
		t.Error("Two-vertex polygon should contain nothing")
	}
}

func TestContains_HorizontalEdges(t *testing.T) {
	// Edges with constant longitude exercise the epsilon guard in the
	// edge-crossing division.
	flat := []fleet.Position{
		{Lat: 0, Lon: 0},
		{Lat: 10, Lon: 0},
		{Lat: 10, Lon: 10},
		{Lat: 0, Lon: 10},
	}
	if !Contains(fleet.Position{Lat: 5, Lon: 5}, flat) {
		t.Error("Expected interior point inside polygon with horizontal edges")
	}
	if Contains(fleet.Position{Lat: 20, Lon: 5}, flat) {
		t.Error("Expected exterior point outside polygon with horizontal edges")
	}
}

func TestContains_ConcavePolygon(t *testing.T) {
	// A "U" shape: the notch between the arms is outside.
	u := []fleet.Position{
		{Lat: 0, Lon: 0},
		{Lat: 10, Lon: 0},
		{Lat: 10, Lon: 4},
		{Lat: 2, Lon: 4},
		{Lat: 2, Lon: 6},
		{Lat: 10, Lon: 6},
		{Lat: 10, Lon: 10},
		{Lat: 0, Lon: 10},
	}
	if !Contains(fleet.Position{Lat: 1, Lon: 5}, u) {
		t.Error("Expected point in the base of the U inside")
	}
	if Contains(fleet.Position{Lat: 5, Lon: 5}, u) {
		t.Error("Expected point in the notch outside")
	}
}
