package main

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format("2006-01-02") + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns (OID 1082) into DateOnly. NULL values zero the time and return nil
// so that *DateOnly pointer fields can be set to nil by pgx's NULL handling.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

/* ─── Roles and statuses ─────────────────────────────────────────────── */

// Account roles. Doctors get a consent-gated view into patient data; patients
// only ever see their own.
const (
	rolePatient = "patient"
	roleDoctor  = "doctor"
)

// Appointment statuses. Requests start pending until the doctor acts.
const (
	apptPending  = "pending"
	apptAccepted = "accepted"
	apptRejected = "rejected"
)

// Consent statuses stored in the consents table.
const (
	consentApproved = "approved"
	consentRevoked  = "revoked"
)

/* ─── Domain structs ─────────────────────────────────────────────────── */

// user maps to the users table. Password is hidden from JSON responses.
// Health-profile fields are nullable — a fresh account has none of them.
type user struct {
	ID       int    `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Email    string `json:"email" db:"email"`
	Password string `json:"-" db:"password"`
	Role     string `json:"role" db:"role"`

	Age           *int     `json:"age" db:"age"`
	Gender        *string  `json:"gender" db:"gender"`
	HeightCM      *float64 `json:"height_cm" db:"height_cm"`
	WeightKG      *float64 `json:"weight_kg" db:"weight_kg"`
	BMI           *float64 `json:"bmi" db:"bmi"`
	BMIStatus     *string  `json:"bmi_status" db:"bmi_status"`
	ActivityLevel *string  `json:"activity_level" db:"activity_level"`
	BloodPressure *string  `json:"blood_pressure" db:"blood_pressure"`
	BloodSugar    *string  `json:"blood_sugar" db:"blood_sugar"`
	Specialty     *string  `json:"specialty,omitempty" db:"specialty"`

	CreatedAt *time.Time `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

// appointment maps to the appointments table. Time is "HH:MM" text; combined
// with Date it gives the visit start. ReminderSent and Completed belong to the
// background sweeper.
type appointment struct {
	ID             int        `json:"id" db:"id"`
	PatientID      int        `json:"patient_id" db:"patient_id"`
	DoctorID       int        `json:"doctor_id" db:"doctor_id"`
	Date           DateOnly   `json:"date" db:"date"`
	Time           string     `json:"time" db:"time"`
	Reason         string     `json:"reason" db:"reason"`
	Status         string     `json:"status" db:"status"`
	ConsentGranted bool       `json:"consent_granted" db:"consent_granted"`
	DoctorNotes    *string    `json:"doctor_notes" db:"doctor_notes"`
	ReminderSent   bool       `json:"reminder_sent" db:"reminder_sent"`
	Completed      bool       `json:"completed" db:"completed"`
	CreatedAt      *time.Time `json:"created_at" db:"created_at"`
}

// medicalReport maps to medical_reports. StoragePath is the object key in the
// private reports bucket — never exposed in JSON; clients get at the file
// through short-lived signed URLs only.
type medicalReport struct {
	ID          string     `json:"id" db:"id"`
	PatientID   int        `json:"patient_id" db:"patient_id"`
	StoragePath string     `json:"-" db:"storage_path"`
	FileName    string     `json:"file_name" db:"file_name"`
	ContentType string     `json:"content_type" db:"content_type"`
	SizeBytes   int64      `json:"size_bytes" db:"size_bytes"`
	AIAnalysis  *string    `json:"ai_analysis" db:"ai_analysis"`
	UploadedAt  *time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// consentRecord maps to consents. One row per (patient, doctor) pair —
// granting again after a revoke flips the same row back to approved.
type consentRecord struct {
	ID        int        `json:"id" db:"id"`
	PatientID int        `json:"patient_id" db:"patient_id"`
	DoctorID  int        `json:"doctor_id" db:"doctor_id"`
	Status    string     `json:"status" db:"status"`
	GrantedAt *time.Time `json:"granted_at" db:"granted_at"`
	RevokedAt *time.Time `json:"revoked_at" db:"revoked_at"`
}

// doctorListing is the public subset of a doctor row shown to patients on the
// booking screen.
type doctorListing struct {
	ID        int     `json:"id" db:"id"`
	Username  string  `json:"username" db:"username"`
	Specialty *string `json:"specialty" db:"specialty"`
}

// patientHealthView is the health subset of a user row returned to doctors
// with consent. Contact fields are deliberately not included.
type patientHealthView struct {
	ID            int      `json:"id" db:"id"`
	Username      string   `json:"username" db:"username"`
	Age           *int     `json:"age" db:"age"`
	Gender        *string  `json:"gender" db:"gender"`
	HeightCM      *float64 `json:"height_cm" db:"height_cm"`
	WeightKG      *float64 `json:"weight_kg" db:"weight_kg"`
	BMI           *float64 `json:"bmi" db:"bmi"`
	BMIStatus     *string  `json:"bmi_status" db:"bmi_status"`
	ActivityLevel *string  `json:"activity_level" db:"activity_level"`
	BloodPressure *string  `json:"blood_pressure" db:"blood_pressure"`
	BloodSugar    *string  `json:"blood_sugar" db:"blood_sugar"`
}

// patchProfileRequest is the request body for PATCH /api/profile.
// All fields are pointers — only non-nil fields get written to the database.
type patchProfileRequest struct {
	Age           *int     `json:"age"`
	Gender        *string  `json:"gender"`
	HeightCM      *float64 `json:"height_cm"`
	WeightKG      *float64 `json:"weight_kg"`
	ActivityLevel *string  `json:"activity_level"`
	BloodPressure *string  `json:"blood_pressure"`
	BloodSugar    *string  `json:"blood_sugar"`
	Specialty     *string  `json:"specialty"`
}

// bookAppointmentRequest is the request body for POST /api/appointments.
type bookAppointmentRequest struct {
	DoctorID int    `json:"doctor_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Reason   string `json:"reason"`
}
