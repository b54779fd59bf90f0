package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// parseAppointmentSlot validates a YYYY-MM-DD date and HH:MM time pair and
// returns the combined visit start.
func parseAppointmentSlot(date, hhmm string) (time.Time, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return time.Time{}, fmt.Errorf("invalid date, expected YYYY-MM-DD")
	}
	if _, err := time.Parse("15:04", hhmm); err != nil {
		return time.Time{}, fmt.Errorf("invalid time, expected HH:MM")
	}
	return time.Parse("2006-01-02 15:04", date+" "+hhmm)
}

// bookAppointment creates a pending appointment request with a doctor.
// POST /api/appointments. Patients only.
func (h *Handler) bookAppointment(c *gin.Context) {
	userID := c.GetInt("user_id")
	if c.GetString("role") != rolePatient {
		apiError(c, http.StatusForbidden, "only patients can book appointments")
		return
	}

	var body bookAppointmentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Reason) == "" {
		apiError(c, http.StatusBadRequest, "reason is required")
		return
	}
	start, err := parseAppointmentSlot(body.Date, body.Time)
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	if start.Before(time.Now().UTC()) {
		apiError(c, http.StatusBadRequest, "appointment must be in the future")
		return
	}
	// Store the normalized forms — "9:30" and "09:30" must be the same slot.
	slotDate := start.Format("2006-01-02")
	slotTime := start.Format("15:04")

	// The target must be an existing doctor account.
	var doctorRole string
	err = h.db.QueryRow(c,
		"SELECT role FROM users WHERE id = @doctorID",
		pgx.NamedArgs{"doctorID": body.DoctorID}).Scan(&doctorRole)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && doctorRole != roleDoctor) {
		apiError(c, http.StatusNotFound, "doctor not found")
		return
	}
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to book appointment")
		return
	}

	// A slot stays taken while a request for it is pending or accepted;
	// rejected requests free it up again.
	var slotTaken bool
	err = h.db.QueryRow(c,
		`SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = @doctorID AND date = @date AND time = @time AND status != @rejected
		)`,
		pgx.NamedArgs{"doctorID": body.DoctorID, "date": slotDate, "time": slotTime, "rejected": apptRejected}).Scan(&slotTaken)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to book appointment")
		return
	}
	if slotTaken {
		apiError(c, http.StatusConflict, "that slot is already booked")
		return
	}

	appt, err := queryOne[appointment](h.db, c,
		`INSERT INTO appointments (patient_id, doctor_id, date, time, reason)
		 VALUES (@patientID, @doctorID, @date, @time, @reason)
		 RETURNING *`,
		pgx.NamedArgs{
			"patientID": userID, "doctorID": body.DoctorID,
			"date": slotDate, "time": slotTime, "reason": strings.TrimSpace(body.Reason),
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to book appointment")
		return
	}

	c.JSON(http.StatusCreated, appt)
}

// listAppointments returns the authenticated user's appointments, newest
// first. Doctors see the appointments booked with them; patients see their own.
// GET /api/appointments.
func (h *Handler) listAppointments(c *gin.Context) {
	userID := c.GetInt("user_id")

	column := "patient_id"
	if c.GetString("role") == roleDoctor {
		column = "doctor_id"
	}

	appts, err := queryMany[appointment](h.db, c,
		"SELECT * FROM appointments WHERE "+column+" = @userID ORDER BY date DESC, time DESC",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch appointments")
		return
	}
	// Ensure an empty array (not null) in JSON
	if appts == nil {
		appts = []appointment{}
	}
	c.JSON(http.StatusOK, appts)
}

// loadAppointment fetches the appointment named by the :id route param,
// writing the 400/404/500 response itself on failure.
func (h *Handler) loadAppointment(c *gin.Context) (appointment, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid appointment id")
		return appointment{}, false
	}

	appt, err := queryOne[appointment](h.db, c,
		"SELECT * FROM appointments WHERE id = @id",
		pgx.NamedArgs{"id": id})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "appointment not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch appointment")
		}
		return appointment{}, false
	}
	return appt, true
}

// acceptAppointment moves a pending appointment to accepted, optionally
// attaching doctor notes.
// POST /api/appointments/:id/accept. The appointment's doctor only.
func (h *Handler) acceptAppointment(c *gin.Context) {
	h.resolveAppointment(c, apptAccepted)
}

// rejectAppointment moves a pending appointment to rejected.
// POST /api/appointments/:id/reject. The appointment's doctor only.
func (h *Handler) rejectAppointment(c *gin.Context) {
	h.resolveAppointment(c, apptRejected)
}

// resolveAppointment applies a doctor's accept/reject decision to a pending
// appointment. The status check makes decisions final: no flipping an
// accepted appointment to rejected or re-accepting with different notes.
func (h *Handler) resolveAppointment(c *gin.Context, newStatus string) {
	appt, ok := h.loadAppointment(c)
	if !ok {
		return
	}
	if c.GetString("role") != roleDoctor || appt.DoctorID != c.GetInt("user_id") {
		apiError(c, http.StatusForbidden, "only the appointment's doctor can do that")
		return
	}
	if appt.Status != apptPending {
		apiError(c, http.StatusConflict, "appointment is already "+appt.Status)
		return
	}

	var body struct {
		DoctorNotes *string `json:"doctor_notes"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			apiError(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	updated, err := queryOne[appointment](h.db, c,
		`UPDATE appointments
		 SET status = @status, doctor_notes = COALESCE(@notes, doctor_notes)
		 WHERE id = @id AND status = @pending
		 RETURNING *`,
		pgx.NamedArgs{"status": newStatus, "notes": body.DoctorNotes, "id": appt.ID, "pending": apptPending})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to update appointment")
		return
	}

	log.Printf("[appointments] doctor=%d %s appointment=%d patient=%d",
		appt.DoctorID, newStatus, appt.ID, appt.PatientID)
	c.JSON(http.StatusOK, updated)
}

// grantConsent records the patient's consent for the appointment's doctor to
// view their data. The appointment flag and the consents row are written in
// one transaction so the two can never drift apart.
// POST /api/appointments/:id/consent. The appointment's patient only.
func (h *Handler) grantConsent(c *gin.Context) {
	appt, ok := h.loadAppointment(c)
	if !ok {
		return
	}
	if appt.PatientID != c.GetInt("user_id") {
		apiError(c, http.StatusForbidden, "only the appointment's patient can grant consent")
		return
	}
	if appt.Status != apptAccepted {
		apiError(c, http.StatusConflict, "consent requires an accepted appointment")
		return
	}

	tx, err := h.db.Begin(c)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to grant consent")
		return
	}
	defer tx.Rollback(c)

	if _, err := tx.Exec(c,
		"UPDATE appointments SET consent_granted = true WHERE id = @id",
		pgx.NamedArgs{"id": appt.ID}); err != nil {
		apiError(c, http.StatusInternalServerError, "failed to grant consent")
		return
	}
	if _, err := tx.Exec(c,
		`INSERT INTO consents (patient_id, doctor_id, status, granted_at)
		 VALUES (@patientID, @doctorID, @approved, now())
		 ON CONFLICT (patient_id, doctor_id)
		 DO UPDATE SET status = EXCLUDED.status, granted_at = EXCLUDED.granted_at, revoked_at = NULL`,
		pgx.NamedArgs{"patientID": appt.PatientID, "doctorID": appt.DoctorID, "approved": consentApproved}); err != nil {
		apiError(c, http.StatusInternalServerError, "failed to grant consent")
		return
	}
	if err := tx.Commit(c); err != nil {
		apiError(c, http.StatusInternalServerError, "failed to grant consent")
		return
	}

	log.Printf("[consent] granted patient=%d doctor=%d appointment=%d",
		appt.PatientID, appt.DoctorID, appt.ID)
	appt.ConsentGranted = true
	c.JSON(http.StatusOK, appt)
}

// revokeConsent withdraws the patient's consent for the appointment's doctor.
// Takes effect on the next authorization check — there are no sessions to
// invalidate. Revoking with no prior grant still records the refusal.
// POST /api/appointments/:id/revoke-consent. The appointment's patient only.
func (h *Handler) revokeConsent(c *gin.Context) {
	appt, ok := h.loadAppointment(c)
	if !ok {
		return
	}
	if appt.PatientID != c.GetInt("user_id") {
		apiError(c, http.StatusForbidden, "only the appointment's patient can revoke consent")
		return
	}

	tx, err := h.db.Begin(c)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to revoke consent")
		return
	}
	defer tx.Rollback(c)

	if _, err := tx.Exec(c,
		"UPDATE appointments SET consent_granted = false WHERE id = @id",
		pgx.NamedArgs{"id": appt.ID}); err != nil {
		apiError(c, http.StatusInternalServerError, "failed to revoke consent")
		return
	}
	if _, err := tx.Exec(c,
		`INSERT INTO consents (patient_id, doctor_id, status, revoked_at)
		 VALUES (@patientID, @doctorID, @revoked, now())
		 ON CONFLICT (patient_id, doctor_id)
		 DO UPDATE SET status = EXCLUDED.status, revoked_at = EXCLUDED.revoked_at`,
		pgx.NamedArgs{"patientID": appt.PatientID, "doctorID": appt.DoctorID, "revoked": consentRevoked}); err != nil {
		apiError(c, http.StatusInternalServerError, "failed to revoke consent")
		return
	}
	if err := tx.Commit(c); err != nil {
		apiError(c, http.StatusInternalServerError, "failed to revoke consent")
		return
	}

	log.Printf("[consent] revoked patient=%d doctor=%d appointment=%d",
		appt.PatientID, appt.DoctorID, appt.ID)
	appt.ConsentGranted = false
	c.JSON(http.StatusOK, appt)
}
