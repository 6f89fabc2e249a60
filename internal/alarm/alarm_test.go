package alarm

import (
	"strings"
	"testing"
	"time"
)

func TestCatalog_CoversAllTypes(t *testing.T) {
	types := []Type{
		GeofenceEntry, GeofenceExit,
		LowBattery, CriticalBattery,
		LowFuel, CriticalFuel,
		CommunicationLost, MaintenanceRequired,
	}
	for _, typ := range types {
		meta, ok := Catalog[typ]
		if !ok {
			t.Errorf("Catalog missing entry for %s", typ)
			continue
		}
		if meta.Name == "" || meta.Severity == "" || meta.Color == "" {
			t.Errorf("Catalog entry for %s is incomplete: %+v", typ, meta)
		}
	}
}

func TestComposeRule(t *testing.T) {
	rule := ComposeRule(CriticalBattery, "12%")
	if !strings.Contains(rule, "Critical battery") {
		t.Errorf("Expected display name in rule, got %q", rule)
	}
	if !strings.Contains(rule, "(12%)") {
		t.Errorf("Expected detail suffix in rule, got %q", rule)
	}

	bare := ComposeRule(GeofenceExit, "")
	if strings.Contains(bare, "(") {
		t.Errorf("Expected no detail suffix, got %q", bare)
	}
}

func TestComposeRule_UnknownType(t *testing.T) {
	rule := ComposeRule(Type("custom_thing"), "")
	if rule != "custom_thing" {
		t.Errorf("Expected raw type name for unknown type, got %q", rule)
	}
}

func TestNew_FillsMetadata(t *testing.T) {
	gid := int64(7)
	ts := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	a := New(42, "drone-1", &gid, GeofenceEntry, "rule", ts)

	if a.ID != 42 || a.AssetID != "drone-1" {
		t.Errorf("Unexpected identity: %+v", a)
	}
	if a.GeofenceID == nil || *a.GeofenceID != 7 {
		t.Errorf("Expected geofence ID 7, got %+v", a.GeofenceID)
	}
	if a.Severity != SeverityInfo || a.Color == "" {
		t.Errorf("Expected catalog metadata filled in, got %+v", a)
	}
	if a.Acknowledged {
		t.Error("New alarms must start unacknowledged")
	}
}
