package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// getProfile returns the authenticated user's full profile.
// GET /api/profile.
func (h *Handler) getProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	u, err := queryOne[user](h.db, c,
		"SELECT * FROM users WHERE id = @userID",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		apiError(c, http.StatusNotFound, "user not found")
		return
	}

	c.JSON(http.StatusOK, u)
}

// patchProfile updates only the provided profile fields, then recomputes the
// stored BMI whenever both height and weight are known afterwards.
// PATCH /api/profile. Pointer fields in the request body distinguish "not
// provided" from zero — only non-nil fields get written.
func (h *Handler) patchProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body patchProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	// Validate enums and ranges before saving — a bad value stored now breaks
	// BMI computation and AI prompt generation later with no visible error.
	if body.Gender != nil && !validGenders[*body.Gender] {
		apiError(c, http.StatusBadRequest, "gender must be one of: male, female, other")
		return
	}
	if body.ActivityLevel != nil && !validActivityLevels[*body.ActivityLevel] {
		apiError(c, http.StatusBadRequest, "activity_level must be one of: sedentary, light, moderate, active, very_active")
		return
	}
	if body.Age != nil && (*body.Age < 0 || *body.Age > 130) {
		apiError(c, http.StatusBadRequest, "age must be between 0 and 130")
		return
	}
	if body.HeightCM != nil && (*body.HeightCM <= 0 || *body.HeightCM > 300) {
		apiError(c, http.StatusBadRequest, "height_cm must be between 0 and 300")
		return
	}
	if body.WeightKG != nil && (*body.WeightKG <= 0 || *body.WeightKG > 700) {
		apiError(c, http.StatusBadRequest, "weight_kg must be between 0 and 700")
		return
	}

	// Build SET clause dynamically — only update fields the client actually sent
	setClauses := []string{}
	args := pgx.NamedArgs{"userID": userID}

	if body.Age != nil {
		setClauses = append(setClauses, "age = @age")
		args["age"] = *body.Age
	}
	if body.Gender != nil {
		setClauses = append(setClauses, "gender = @gender")
		args["gender"] = *body.Gender
	}
	if body.HeightCM != nil {
		setClauses = append(setClauses, "height_cm = @heightCM")
		args["heightCM"] = *body.HeightCM
	}
	if body.WeightKG != nil {
		setClauses = append(setClauses, "weight_kg = @weightKG")
		args["weightKG"] = *body.WeightKG
	}
	if body.ActivityLevel != nil {
		setClauses = append(setClauses, "activity_level = @activityLevel")
		args["activityLevel"] = *body.ActivityLevel
	}
	if body.BloodPressure != nil {
		setClauses = append(setClauses, "blood_pressure = @bloodPressure")
		args["bloodPressure"] = *body.BloodPressure
	}
	if body.BloodSugar != nil {
		setClauses = append(setClauses, "blood_sugar = @bloodSugar")
		args["bloodSugar"] = *body.BloodSugar
	}
	if body.Specialty != nil {
		setClauses = append(setClauses, "specialty = @specialty")
		args["specialty"] = *body.Specialty
	}

	if len(setClauses) == 0 {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}
	setClauses = append(setClauses, "updated_at = now()")

	query := "UPDATE users SET " + strings.Join(setClauses, ", ") +
		" WHERE id = @userID RETURNING *"

	u, err := queryOne[user](h.db, c, query, args)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to update profile")
		return
	}

	// Persist the derived BMI so reads and doctor views never recompute it.
	if u.HeightCM != nil && u.WeightKG != nil {
		if bmi, status, ok := computeBMI(*u.HeightCM, *u.WeightKG); ok {
			updated, err := queryOne[user](h.db, c,
				"UPDATE users SET bmi = @bmi, bmi_status = @bmiStatus WHERE id = @userID RETURNING *",
				pgx.NamedArgs{"bmi": bmi, "bmiStatus": status, "userID": userID})
			if err != nil {
				log.Printf("[profile] bmi update failed for user %d: %v", userID, err)
			} else {
				u = updated
			}
		}
	}

	c.JSON(http.StatusOK, u)
}

// listDoctors returns all doctor accounts for the booking screen.
// GET /api/doctors.
func (h *Handler) listDoctors(c *gin.Context) {
	doctors, err := queryMany[doctorListing](h.db, c,
		"SELECT id, username, specialty FROM users WHERE role = @role ORDER BY username",
		pgx.NamedArgs{"role": roleDoctor})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch doctors")
		return
	}
	// Ensure an empty array (not null) in JSON
	if doctors == nil {
		doctors = []doctorListing{}
	}
	c.JSON(http.StatusOK, doctors)
}

// getPatientHealth returns a patient's health profile to an authorized
// requester — the patient themselves, or a doctor holding approved consent.
// The consent gate runs before the existence check so unauthorized callers
// can't probe patient ids.
// GET /api/patients/:id/health.
func (h *Handler) getPatientHealth(c *gin.Context) {
	patientID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid patient id")
		return
	}
	if !h.requirePatientAccess(c, patientID, "health") {
		return
	}

	view, err := queryOne[patientHealthView](h.db, c,
		`SELECT id, username, age, gender, height_cm, weight_kg, bmi, bmi_status,
		        activity_level, blood_pressure, blood_sugar
		 FROM users WHERE id = @patientID AND role = @role`,
		pgx.NamedArgs{"patientID": patientID, "role": rolePatient})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "patient not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch patient")
		}
		return
	}

	c.JSON(http.StatusOK, view)
}
