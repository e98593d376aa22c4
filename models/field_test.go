package models

import (
	"testing"
)

func TestDistanceTo(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		shortLong int
		units     int
		want      float64
	}{
		{"feet to mm", 10, UnitsLong, UnitsSAE, 3048},
		{"feet rounds", 1.5, UnitsLong, UnitsSAE, 457}, // 457.2 -> 457
		{"meters to mm", 2.5, UnitsLong, UnitsMetric, 2500},
		{"inches to mm", 4, UnitsShort, UnitsSAE, 102}, // 101.6 -> 102
		{"mm passthrough", 120, UnitsShort, UnitsMetric, 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceTo(tt.value, tt.shortLong, tt.units)
			if got != tt.want {
				t.Errorf("DistanceTo(%v, %d, %d) = %v, want %v",
					tt.value, tt.shortLong, tt.units, got, tt.want)
			}
		})
	}
}

func TestDistanceFrom(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		shortLong int
		units     int
		want      float64
	}{
		{"mm to feet one decimal", 3048, UnitsLong, UnitsSAE, 10},
		{"mm to feet rounds", 3100, UnitsLong, UnitsSAE, 10.2}, // 10.17 -> 10.2
		{"mm to meters one decimal", 2540, UnitsLong, UnitsMetric, 2.5},
		{"mm to inches integer", 102, UnitsShort, UnitsSAE, 4}, // 4.02 -> 4
		{"mm passthrough", 120, UnitsShort, UnitsMetric, 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceFrom(tt.value, tt.shortLong, tt.units)
			if got != tt.want {
				t.Errorf("DistanceFrom(%v, %d, %d) = %v, want %v",
					tt.value, tt.shortLong, tt.units, got, tt.want)
			}
		})
	}
}

func TestDistanceRoundTrip(t *testing.T) {
	// Converting to mm and back must land on the entered value for the
	// precisions users can actually type.
	for _, entered := range []float64{0, 1, 2.5, 10, 99.9} {
		mm := DistanceTo(entered, UnitsLong, UnitsSAE)
		back := DistanceFrom(mm, UnitsLong, UnitsSAE)
		if back != entered {
			t.Errorf("round trip %v ft: stored %v mm, read back %v", entered, mm, back)
		}
	}
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		shortLong  int
		unitFormat int
		units      int
		want       string
	}{
		{UnitsLong, UnitFormatNormal, UnitsMetric, "Meters"},
		{UnitsLong, UnitFormatShort, UnitsMetric, "m"},
		{UnitsLong, UnitFormatNormal, UnitsSAE, "Feet"},
		{UnitsLong, UnitFormatShort, UnitsSAE, "ft"},
		{UnitsShort, UnitFormatNormal, UnitsMetric, "MilliMeters"},
		{UnitsShort, UnitFormatCompact, UnitsMetric, "mm"},
		{UnitsShort, UnitFormatNormal, UnitsSAE, "Inches"},
		{UnitsShort, UnitFormatShort, UnitsSAE, "in"},
	}
	for _, tt := range tests {
		got := FormatUnits(tt.shortLong, tt.unitFormat, tt.units)
		if got != tt.want {
			t.Errorf("FormatUnits(%d, %d, %d) = %q, want %q",
				tt.shortLong, tt.unitFormat, tt.units, got, tt.want)
		}
	}
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		name       string
		value      float64
		shortLong  int
		unitFormat int
		units      int
		want       string
	}{
		{"feet short", 3048, UnitsLong, UnitFormatShort, UnitsSAE, "10 ft"},
		{"feet fractional", 3100, UnitsLong, UnitFormatShort, UnitsSAE, "10.2 ft"},
		{"meters compact no space", 2500, UnitsLong, UnitFormatCompact, UnitsMetric, "2.5m"},
		{"inches normal", 102, UnitsShort, UnitFormatNormal, UnitsSAE, "4 Inches"},
		{"mm short", 120, UnitsShort, UnitFormatShort, UnitsMetric, "120 mm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatDistance(tt.value, tt.shortLong, tt.unitFormat, tt.units)
			if got != tt.want {
				t.Errorf("FormatDistance = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrimFloat(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{10, "10"},
		{10.2, "10.2"},
		{0, "0"},
		{-3.5, "-3.5"},
	}
	for _, tt := range tests {
		if got := trimFloat(tt.value); got != tt.want {
			t.Errorf("trimFloat(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestFieldType(t *testing.T) {
	f := Field{FieldType: FieldTypeBatteryTest}
	if got := f.Type(); got != "Battery Test" {
		t.Errorf("Type() = %q, want %q", got, "Battery Test")
	}
	if got := f.APIType(); got != "battery" {
		t.Errorf("APIType() = %q, want %q", got, "battery")
	}
	f.FieldType = 99
	if got := f.Type(); got != "Unknown" {
		t.Errorf("Type() for unmapped type = %q, want Unknown", got)
	}
}

func TestValueBool(t *testing.T) {
	f := Field{FieldType: FieldTypeBool}
	tests := []struct {
		value string
		want  string
	}{
		{"", "No"},
		{"0", "No"},
		{"false", "No"},
		{"1", "Yes"},
		{"true", "Yes"},
	}
	for _, tt := range tests {
		got := f.Value(nil, &Answer{Value: tt.value}, UnitsMetric)
		if got != tt.want {
			t.Errorf("bool Value(%q) = %v, want %q", tt.value, got, tt.want)
		}
	}
}

func TestValueSelect(t *testing.T) {
	f := Field{
		FieldType: FieldTypeSelect,
		Options: []byte(`{"select":[
			{"slug":"pass","name":"Passed"},
			{"slug":"fail","name":"Failed"},
			{"slug":"other","name":"Other","other":true}]}`),
	}

	if got := f.Value(nil, &Answer{Value: "fail"}, UnitsMetric); got != "Failed" {
		t.Errorf("scalar select = %v, want Failed", got)
	}
	if got := f.Value(nil, &Answer{Value: `"pass"`}, UnitsMetric); got != "Passed" {
		t.Errorf("json scalar select = %v, want Passed", got)
	}
	if got := f.Value(nil, &Answer{Value: "nope"}, UnitsMetric); got != "Unknown" {
		t.Errorf("unconfigured slug = %v, want Unknown", got)
	}
	if got := f.Value(nil, &Answer{Value: "other", Other: "rust damage"}, UnitsMetric); got != "rust damage" {
		t.Errorf("other option = %v, want free text", got)
	}
}

func TestValueSelectMultiple(t *testing.T) {
	f := Field{
		FieldType: FieldTypeSelect,
		Options: []byte(`{"multiple":true,"select":[
			{"slug":"a","name":"Alpha"},
			{"slug":"b","name":"Beta"},
			{"slug":"c","name":"Gamma"}]}`),
	}
	got, ok := f.Value(nil, &Answer{Value: `["a","c"]`}, UnitsMetric).([]string)
	if !ok {
		t.Fatalf("multi select did not return []string")
	}
	if len(got) != 2 || got[0] != "Alpha" || got[1] != "Gamma" {
		t.Errorf("multi select = %v, want [Alpha Gamma]", got)
	}
}

func TestValueDistance(t *testing.T) {
	f := Field{
		FieldType: FieldTypeDistance,
		Options:   []byte(`{"units":2}`),
	}
	if got := f.Value(nil, &Answer{Value: "3048"}, UnitsSAE); got != "10 ft" {
		t.Errorf("distance SAE = %v, want 10 ft", got)
	}
	if got := f.Value(nil, &Answer{Value: "2500"}, UnitsMetric); got != "2.5 m" {
		t.Errorf("distance metric = %v, want 2.5 m", got)
	}
}

func TestValueStructuredLenient(t *testing.T) {
	f := Field{FieldType: FieldTypeIssueList}
	got, ok := f.Value(nil, &Answer{Value: "not json"}, UnitsMetric).([]interface{})
	if !ok || len(got) != 0 {
		t.Errorf("malformed issue list = %v, want empty list", got)
	}
	got, ok = f.Value(nil, &Answer{Value: ""}, UnitsMetric).([]interface{})
	if !ok || len(got) != 0 {
		t.Errorf("blank issue list = %v, want empty list", got)
	}
}

func TestBatteryEmpty(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"blank", "", true},
		{"malformed", "not json", true},
		{"no count", `{"strings":[]}`, true},
		{"no strings", `{"count":2}`, true},
		{"zero count string", `{"count":1,"strings":[{"count":0,"batteries":[{"charging":13.5}]}]}`, true},
		{"batteries without readings", `{"count":1,"strings":[{"count":2,"batteries":[{"label":"B1"}]}]}`, true},
		{"charging reading", `{"count":1,"strings":[{"count":2,"batteries":[{"charging":13.5}]}]}`, false},
		{"discharging reading", `{"count":1,"strings":[{"count":2,"batteries":[{"label":"B1"},{"discharging":11.9}]}]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := batteryEmpty(&Answer{Value: tt.value})
			if got != tt.want {
				t.Errorf("batteryEmpty(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestDecodeOptionsLenient(t *testing.T) {
	f := Field{Options: []byte(`garbage`)}
	if opts := f.DecodeOptions(); opts.Multiple || len(opts.Select) != 0 {
		t.Errorf("malformed options should decode as zero value, got %+v", opts)
	}
	f.Options = nil
	if opts := f.DecodeOptions(); opts.Units != 0 {
		t.Errorf("empty options should decode as zero value, got %+v", opts)
	}
}
