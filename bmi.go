package main

import "math"

// validActivityLevels is the set of accepted activity_level values. This is
// the single source of truth — also used for input validation in patchProfile.
var validActivityLevels = map[string]bool{
	"sedentary":   true,
	"light":       true,
	"moderate":    true,
	"active":      true,
	"very_active": true,
}

// validGenders is the set of accepted gender values.
var validGenders = map[string]bool{
	"male":   true,
	"female": true,
	"other":  true,
}

// WHO BMI classification cutoffs. Each bound is exclusive on the low side:
// exactly 18.5 is normal, exactly 25.0 is overweight, exactly 30.0 is obese.
const (
	bmiUnderweightBelow = 18.5
	bmiNormalBelow      = 25.0
	bmiOverweightBelow  = 30.0
)

// computeBMI computes body mass index (kg/m²) rounded to one decimal plus its
// classification from height in centimeters and weight in kilograms.
// Classification runs on the rounded value so the number shown to the user and
// its label never disagree. Returns ok=false for non-positive or implausible
// inputs (height over 300cm, weight over 700kg) rather than producing a
// nonsense number.
func computeBMI(heightCM, weightKG float64) (bmi float64, status string, ok bool) {
	if heightCM <= 0 || weightKG <= 0 || heightCM > 300 || weightKG > 700 {
		return 0, "", false
	}

	meters := heightCM / 100
	bmi = math.Round(weightKG/(meters*meters)*10) / 10

	switch {
	case bmi < bmiUnderweightBelow:
		status = "underweight"
	case bmi < bmiNormalBelow:
		status = "normal"
	case bmi < bmiOverweightBelow:
		status = "overweight"
	default:
		status = "obese"
	}
	return bmi, status, true
}
