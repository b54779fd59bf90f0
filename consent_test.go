package main

import (
	"testing"
	"time"
)

// grantAt builds a consentGrant with the given status and expiry bound.
// Pass the zero time for an open-ended grant (expiry disabled).
func grantAt(status string, expiresAt time.Time) *consentGrant {
	g := &consentGrant{Status: status}
	if !expiresAt.IsZero() {
		g.ExpiresAt = &expiresAt
	}
	return g
}

// fixedNow is the evaluation instant used across these tests. The predicate
// takes now as an argument, so nothing here depends on the wall clock.
var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

/* ─── Owner access ───────────────────────────────────────────────────── */

// TestAuthorizePatientAccess_OwnerAlwaysAllowed verifies that a requester
// reading their own data is allowed no matter what role they hold or what
// state their consent records are in.
func TestAuthorizePatientAccess_OwnerAlwaysAllowed(t *testing.T) {
	cases := []struct {
		name  string
		role  string
		grant *consentGrant
	}{
		{"patient with no grant", rolePatient, nil},
		{"patient with revoked grant", rolePatient, grantAt(consentRevoked, time.Time{})},
		{"patient with expired grant", rolePatient, grantAt(consentApproved, fixedNow.Add(-time.Hour))},
		{"doctor reading own data", roleDoctor, nil},
		{"unknown role", "admin", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := authorizePatientAccess(7, tc.role, 7, tc.grant, fixedNow)
			if !d.Allowed {
				t.Errorf("expected owner to be allowed, got deny (%s)", d.Reason)
			}
			if d.Reason != accessOwner {
				t.Errorf("expected reason %q, got %q", accessOwner, d.Reason)
			}
		})
	}
}

/* ─── Non-owner denials ──────────────────────────────────────────────── */

// TestAuthorizePatientAccess_NonDoctorDenied verifies that a non-owner who is
// not a doctor is denied even when an approved consent exists for the pair.
func TestAuthorizePatientAccess_NonDoctorDenied(t *testing.T) {
	grant := grantAt(consentApproved, time.Time{})

	d := authorizePatientAccess(3, rolePatient, 7, grant, fixedNow)
	if d.Allowed {
		t.Fatal("expected deny for non-doctor requester, got allow")
	}
	if d.Reason != denyNotDoctor {
		t.Errorf("expected reason %q, got %q", denyNotDoctor, d.Reason)
	}
}

// TestAuthorizePatientAccess_NoConsentDenied verifies the fail-closed default:
// a doctor with no consent record on file is denied.
func TestAuthorizePatientAccess_NoConsentDenied(t *testing.T) {
	d := authorizePatientAccess(3, roleDoctor, 7, nil, fixedNow)
	if d.Allowed {
		t.Fatal("expected deny when no consent exists, got allow")
	}
	if d.Reason != denyNoConsent {
		t.Errorf("expected reason %q, got %q", denyNoConsent, d.Reason)
	}
}

// TestAuthorizePatientAccess_RevokedConsentDenied verifies that a consent row
// in any non-approved status denies access.
func TestAuthorizePatientAccess_RevokedConsentDenied(t *testing.T) {
	d := authorizePatientAccess(3, roleDoctor, 7, grantAt(consentRevoked, time.Time{}), fixedNow)
	if d.Allowed {
		t.Fatal("expected deny for revoked consent, got allow")
	}
	if d.Reason != denyConsentInactive {
		t.Errorf("expected reason %q, got %q", denyConsentInactive, d.Reason)
	}
}

/* ─── Doctor access via consent ──────────────────────────────────────── */

// TestAuthorizePatientAccess_ApprovedConsentAllowed verifies the one
// non-owner grant path: doctor role plus an approved, unexpired consent.
func TestAuthorizePatientAccess_ApprovedConsentAllowed(t *testing.T) {
	cases := []struct {
		name  string
		grant *consentGrant
	}{
		{"open-ended grant", grantAt(consentApproved, time.Time{})},
		{"expiry in the future", grantAt(consentApproved, fixedNow.Add(time.Minute))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := authorizePatientAccess(3, roleDoctor, 7, tc.grant, fixedNow)
			if !d.Allowed {
				t.Errorf("expected allow, got deny (%s)", d.Reason)
			}
			if d.Reason != accessConsent {
				t.Errorf("expected reason %q, got %q", accessConsent, d.Reason)
			}
		})
	}
}

/* ─── Expiry ─────────────────────────────────────────────────────────── */

// TestAuthorizePatientAccess_ExpiredConsentDenied verifies that access flips
// to deny once now reaches the expiry bound, with no grace period: the
// boundary instant itself is already denied.
func TestAuthorizePatientAccess_ExpiredConsentDenied(t *testing.T) {
	cases := []struct {
		name      string
		expiresAt time.Time
	}{
		{"well past expiry", fixedNow.Add(-24 * time.Hour)},
		{"one second past expiry", fixedNow.Add(-time.Second)},
		{"exactly at expiry", fixedNow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := authorizePatientAccess(3, roleDoctor, 7, grantAt(consentApproved, tc.expiresAt), fixedNow)
			if d.Allowed {
				t.Error("expected deny for expired consent, got allow")
			}
			if d.Reason != denyConsentExpired {
				t.Errorf("expected reason %q, got %q", denyConsentExpired, d.Reason)
			}
		})
	}
}

// TestAuthorizePatientAccess_AllowFlipsAtExpiry verifies the transition
// semantics around the bound: allowed one instant before, denied at and after.
func TestAuthorizePatientAccess_AllowFlipsAtExpiry(t *testing.T) {
	expiry := fixedNow.Add(30 * time.Minute)
	grant := grantAt(consentApproved, expiry)

	if d := authorizePatientAccess(3, roleDoctor, 7, grant, expiry.Add(-time.Nanosecond)); !d.Allowed {
		t.Errorf("expected allow just before expiry, got deny (%s)", d.Reason)
	}
	if d := authorizePatientAccess(3, roleDoctor, 7, grant, expiry); d.Allowed {
		t.Error("expected deny at the expiry instant, got allow")
	}
	if d := authorizePatientAccess(3, roleDoctor, 7, grant, expiry.Add(time.Nanosecond)); d.Allowed {
		t.Error("expected deny after expiry, got allow")
	}
}

/* ─── Determinism ────────────────────────────────────────────────────── */

// TestAuthorizePatientAccess_Deterministic verifies that repeated evaluation
// of the same state yields the same decision — the predicate reads no clock
// and keeps no state of its own.
func TestAuthorizePatientAccess_Deterministic(t *testing.T) {
	grant := grantAt(consentApproved, fixedNow.Add(time.Minute))

	first := authorizePatientAccess(3, roleDoctor, 7, grant, fixedNow)
	for i := 0; i < 100; i++ {
		d := authorizePatientAccess(3, roleDoctor, 7, grant, fixedNow)
		if d != first {
			t.Fatalf("decision changed on evaluation %d: first %+v, got %+v", i, first, d)
		}
	}
}
