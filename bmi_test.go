package main

import "testing"

/* ─── Invalid input guard tests ──────────────────────────────────────── */

// TestComputeBMI_InvalidInputs verifies that ok=false is returned for
// non-positive or implausible measurements instead of a nonsense number.
func TestComputeBMI_InvalidInputs(t *testing.T) {
	cases := []struct {
		name     string
		heightCM float64
		weightKG float64
	}{
		{"zero height", 0, 70},
		{"zero weight", 175, 0},
		{"negative height", -175, 70},
		{"negative weight", 175, -70},
		{"height above 300cm", 301, 70},
		{"weight above 700kg", 175, 701},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, ok := computeBMI(tc.heightCM, tc.weightKG)
			if ok {
				t.Errorf("expected ok=false for %s, got ok=true", tc.name)
			}
		})
	}
}

/* ─── Value and classification tests ─────────────────────────────────── */

// TestComputeBMI_KnownValue verifies the formula against a hand-computed case:
// 175cm, 70kg → 70 / 1.75² = 22.857…, rounded to 22.9.
func TestComputeBMI_KnownValue(t *testing.T) {
	bmi, status, ok := computeBMI(175, 70)
	if !ok {
		t.Fatal("expected ok=true, got ok=false")
	}
	if bmi != 22.9 {
		t.Errorf("BMI = %v, want 22.9", bmi)
	}
	if status != "normal" {
		t.Errorf("status = %q, want %q", status, "normal")
	}
}

// TestComputeBMI_ClassificationBoundaries verifies the WHO cutoffs with
// exclusive lower bounds: exactly 18.5 is normal, exactly 25.0 is overweight,
// exactly 30.0 is obese. Height 100cm makes the BMI equal the weight, so each
// case targets an exact classification value.
func TestComputeBMI_ClassificationBoundaries(t *testing.T) {
	cases := []struct {
		weightKG   float64
		wantStatus string
	}{
		{18.4, "underweight"},
		{18.5, "normal"},
		{24.9, "normal"},
		{25.0, "overweight"},
		{29.9, "overweight"},
		{30.0, "obese"},
		{45.0, "obese"},
	}

	for _, tc := range cases {
		bmi, status, ok := computeBMI(100, tc.weightKG)
		if !ok {
			t.Fatalf("expected ok=true for weight %.1f, got ok=false", tc.weightKG)
		}
		if bmi != tc.weightKG {
			t.Errorf("BMI for weight %.1f = %v, want %v", tc.weightKG, bmi, tc.weightKG)
		}
		if status != tc.wantStatus {
			t.Errorf("status for BMI %.1f = %q, want %q", tc.weightKG, status, tc.wantStatus)
		}
	}
}

// TestComputeBMI_ClassifiesRoundedValue verifies that classification runs on
// the rounded number: a raw BMI of 24.96 rounds to 25.0 and must be labelled
// overweight, matching the value the user sees.
func TestComputeBMI_ClassifiesRoundedValue(t *testing.T) {
	bmi, status, ok := computeBMI(100, 24.96)
	if !ok {
		t.Fatal("expected ok=true, got ok=false")
	}
	if bmi != 25.0 {
		t.Fatalf("BMI = %v, want 25.0 after rounding", bmi)
	}
	if status != "overweight" {
		t.Errorf("status = %q, want %q for the rounded value", status, "overweight")
	}
}
