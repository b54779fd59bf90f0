package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

/* ─── Access decisions ───────────────────────────────────────────────── */

// Reasons attached to access decisions. Allow reasons name the basis for the
// grant; deny reasons name the first failed check. They go to the audit log
// only — client responses never include them.
const (
	accessOwner   = "owner"
	accessConsent = "approved consent"

	denyNotDoctor       = "requester is not a doctor"
	denyNoConsent       = "no approved consent on file"
	denyConsentInactive = "consent not approved"
	denyConsentExpired  = "consent expired"
)

// consentGrant is the loaded consent state for a (patient, doctor) pair.
// ExpiresAt is nil when expiry is disabled; otherwise it is the end of the
// pair's most recent accepted appointment.
type consentGrant struct {
	Status    string
	ExpiresAt *time.Time
}

// accessDecision is the outcome of authorizePatientAccess.
type accessDecision struct {
	Allowed bool
	Reason  string
}

// authorizePatientAccess decides whether the requester may read the patient's
// data. Owners are always allowed, whatever their role or consent state.
// Everyone else must be a doctor holding an approved consent from the patient
// that has not expired as of now. Pure function of its inputs: the same
// arguments always produce the same decision.
func authorizePatientAccess(requesterID int, requesterRole string, patientID int, grant *consentGrant, now time.Time) accessDecision {
	if requesterID == patientID {
		return accessDecision{Allowed: true, Reason: accessOwner}
	}
	if requesterRole != roleDoctor {
		return accessDecision{Allowed: false, Reason: denyNotDoctor}
	}
	if grant == nil {
		return accessDecision{Allowed: false, Reason: denyNoConsent}
	}
	if grant.Status != consentApproved {
		return accessDecision{Allowed: false, Reason: denyConsentInactive}
	}
	// Expiry is exclusive: at the boundary instant the consent is already gone.
	if grant.ExpiresAt != nil && !now.Before(*grant.ExpiresAt) {
		return accessDecision{Allowed: false, Reason: denyConsentExpired}
	}
	return accessDecision{Allowed: true, Reason: accessConsent}
}

// logAccessDecision writes one audit line per authorization check. Decisions
// are derivable from the consents and appointments tables, so the log is for
// tracing, not storage.
func logAccessDecision(requesterID, patientID int, resource string, d accessDecision) {
	verdict := "deny"
	if d.Allowed {
		verdict = "allow"
	}
	log.Printf("[consent] %s requester=%d patient=%d resource=%s reason=%s",
		verdict, requesterID, patientID, resource, d.Reason)
}

/* ─── Consent loading ────────────────────────────────────────────────── */

// loadConsentGrant fetches the consent row for the pair, plus the expiry bound
// when consent expiry is enabled. Returns nil with no error when no consent
// exists. With expiry on, an approved consent with no accepted appointment to
// anchor it is treated as absent — access stays closed rather than open-ended.
func (h *Handler) loadConsentGrant(ctx context.Context, patientID, doctorID int) (*consentGrant, error) {
	var status string
	err := h.db.QueryRow(ctx,
		"SELECT status FROM consents WHERE patient_id = @patientID AND doctor_id = @doctorID",
		pgx.NamedArgs{"patientID": patientID, "doctorID": doctorID}).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// Only approved grants need an expiry anchor; anything else already denies
	// on status.
	grant := &consentGrant{Status: status}
	if !h.cfg.ConsentExpiry || status != consentApproved {
		return grant, nil
	}

	var start time.Time
	err = h.db.QueryRow(ctx,
		`SELECT (date + time::time) FROM appointments
		 WHERE patient_id = @patientID AND doctor_id = @doctorID AND status = @accepted
		 ORDER BY date DESC, time DESC
		 LIMIT 1`,
		pgx.NamedArgs{"patientID": patientID, "doctorID": doctorID, "accepted": apptAccepted}).Scan(&start)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	expiresAt := start.Add(h.cfg.VisitDuration)
	grant.ExpiresAt = &expiresAt
	return grant, nil
}

// listConsents returns the consent records the authenticated user is party to:
// patients see the consents they granted, doctors see the consents granted to
// them. Read-only — consent changes go through the appointment endpoints.
// GET /api/consents.
func (h *Handler) listConsents(c *gin.Context) {
	userID := c.GetInt("user_id")

	column := "patient_id"
	if c.GetString("role") == roleDoctor {
		column = "doctor_id"
	}

	consents, err := queryMany[consentRecord](h.db, c,
		"SELECT * FROM consents WHERE "+column+" = @userID ORDER BY granted_at DESC NULLS LAST",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch consents")
		return
	}
	// Ensure an empty array (not null) in JSON
	if consents == nil {
		consents = []consentRecord{}
	}
	c.JSON(http.StatusOK, consents)
}

/* ─── Gate used by handlers ──────────────────────────────────────────── */

// requirePatientAccess runs the consent gate for the authenticated requester
// against patientID, logs the decision, and writes the 403 itself on denial.
// Callers must return immediately when it reports false. resource names the
// endpoint for the audit line. The 403 body is the same for every deny reason
// so probing requests learn nothing about a patient's consent state.
func (h *Handler) requirePatientAccess(c *gin.Context, patientID int, resource string) bool {
	requesterID := c.GetInt("user_id")
	requesterRole := c.GetString("role")

	// Only load consent when it could matter: owners don't need it and
	// non-doctors can't use it.
	var grant *consentGrant
	if requesterID != patientID && requesterRole == roleDoctor {
		g, err := h.loadConsentGrant(c, patientID, requesterID)
		if err != nil {
			apiError(c, http.StatusInternalServerError, "failed to check consent")
			return false
		}
		grant = g
	}

	decision := authorizePatientAccess(requesterID, requesterRole, patientID, grant, time.Now())
	logAccessDecision(requesterID, patientID, resource, decision)
	if !decision.Allowed {
		apiError(c, http.StatusForbidden, "not authorized for this patient's data")
		return false
	}
	return true
}
