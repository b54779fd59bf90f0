package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

/* ─── Upload validation ──────────────────────────────────────────────── */

// allowedReportTypes maps accepted upload extensions to the content type
// stored with the object. The stored type comes from this map, never from the
// client's multipart header.
var allowedReportTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".txt":  "text/plain",
}

// reportContentType resolves a file name to its stored content type.
// ok=false means the extension is not accepted for upload.
func reportContentType(fileName string) (string, bool) {
	ct, ok := allowedReportTypes[strings.ToLower(filepath.Ext(fileName))]
	return ct, ok
}

// reportObjectKey builds the storage key for a new upload. The uuid keeps keys
// unguessable and collision-free; the original file name only survives in the
// database row.
func reportObjectKey(patientID int, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("reports/%d/%s%s", patientID, uuid.New().String(), ext)
}

/* ─── Prompt constants ───────────────────────────────────────────────── */

// Same fixed-heading convention as the plan prompts so splitSections can carve
// the reply.

const reportSystemPrompt = `You are a clinician's assistant explaining a medical report to a patient in plain language.
Write plain text under exactly these headings, each on its own line:
Summary:
Key Findings:
Recommendations:
When To Seek Care:
Be factual and calm. Do not diagnose; point out questions worth asking the treating doctor. No markdown tables.`

// Served when the provider call fails. Nothing from a fallback is ever saved
// to the report row.
const fallbackReportAnalysis = `Summary:
We couldn't generate an explanation for this report right now. The report itself is unaffected — try again in a few minutes.
Key Findings:
Not available without the analysis service.
Recommendations:
Bring the report to your next appointment and walk through it with your doctor.
When To Seek Care:
If something in this report worries you, contact your doctor rather than waiting for the next visit.`

/* ─── Handlers ───────────────────────────────────────────────────────── */

// uploadReport stores a report file privately and records it.
// POST /api/reports/upload (multipart, field "file"). Patients only.
// The object is written before the row; if the insert fails the object is
// removed again so storage never holds orphans the database doesn't know about.
func (h *Handler) uploadReport(c *gin.Context) {
	userID := c.GetInt("user_id")
	if c.GetString("role") != rolePatient {
		apiError(c, http.StatusForbidden, "only patients can upload reports")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apiError(c, http.StatusBadRequest, "file is required")
		return
	}

	contentType, ok := reportContentType(fileHeader.Filename)
	if !ok {
		apiError(c, http.StatusBadRequest, "file type must be one of: pdf, png, jpg, jpeg, txt")
		return
	}
	if fileHeader.Size > h.cfg.MaxUploadBytes {
		apiError(c, http.StatusBadRequest,
			fmt.Sprintf("file exceeds the %d MB limit", h.cfg.MaxUploadBytes>>20))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to read upload")
		return
	}
	defer src.Close()

	key := reportObjectKey(userID, fileHeader.Filename)
	if err := h.store.upload(c.Request.Context(), key, contentType, src); err != nil {
		log.Printf("[reports] upload to storage failed for patient %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to store file")
		return
	}

	report, err := queryOne[medicalReport](h.db, c,
		`INSERT INTO medical_reports (id, patient_id, storage_path, file_name, content_type, size_bytes)
		 VALUES (@id, @patientID, @storagePath, @fileName, @contentType, @sizeBytes)
		 RETURNING *`,
		pgx.NamedArgs{
			"id": uuid.New().String(), "patientID": userID, "storagePath": key,
			"fileName": filepath.Base(fileHeader.Filename), "contentType": contentType,
			"sizeBytes": fileHeader.Size,
		})
	if err != nil {
		if rmErr := h.store.remove(c.Request.Context(), key); rmErr != nil {
			log.Printf("[reports] orphan cleanup failed for %s: %v", key, rmErr)
		}
		apiError(c, http.StatusInternalServerError, "failed to save report")
		return
	}

	log.Printf("[reports] uploaded report=%s patient=%d size=%d", report.ID, userID, report.SizeBytes)
	c.JSON(http.StatusCreated, report)
}

// listMyReports returns the authenticated user's own reports, newest first.
// GET /api/reports.
func (h *Handler) listMyReports(c *gin.Context) {
	reports, err := queryMany[medicalReport](h.db, c,
		"SELECT * FROM medical_reports WHERE patient_id = @userID ORDER BY uploaded_at DESC",
		pgx.NamedArgs{"userID": c.GetInt("user_id")})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch reports")
		return
	}
	// Ensure an empty array (not null) in JSON
	if reports == nil {
		reports = []medicalReport{}
	}
	c.JSON(http.StatusOK, reports)
}

// listPatientReports returns a patient's reports to an authorized requester —
// the patient themselves, or a doctor holding approved consent.
// GET /api/patients/:id/reports.
func (h *Handler) listPatientReports(c *gin.Context) {
	patientID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid patient id")
		return
	}
	if !h.requirePatientAccess(c, patientID, "reports") {
		return
	}

	reports, err := queryMany[medicalReport](h.db, c,
		"SELECT * FROM medical_reports WHERE patient_id = @patientID ORDER BY uploaded_at DESC",
		pgx.NamedArgs{"patientID": patientID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch reports")
		return
	}
	if reports == nil {
		reports = []medicalReport{}
	}
	c.JSON(http.StatusOK, reports)
}

// loadReport fetches the report named by the :id route param, writing the
// 400/404/500 response itself on failure.
func (h *Handler) loadReport(c *gin.Context) (medicalReport, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		apiError(c, http.StatusBadRequest, "invalid report id")
		return medicalReport{}, false
	}

	report, err := queryOne[medicalReport](h.db, c,
		"SELECT * FROM medical_reports WHERE id = @id",
		pgx.NamedArgs{"id": id})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "report not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch report")
		}
		return medicalReport{}, false
	}
	return report, true
}

// getReportSignedURL issues a short-lived download link for a report file.
// GET /api/reports/:id/signed-url. Owner or consent-gated doctor.
// The bucket is private; these links are the only read path to the file.
func (h *Handler) getReportSignedURL(c *gin.Context) {
	report, ok := h.loadReport(c)
	if !ok {
		return
	}
	if !h.requirePatientAccess(c, report.PatientID, "signed-url") {
		return
	}

	url, err := h.store.signedURL(c.Request.Context(), report.StoragePath, h.cfg.SignedURLTTL)
	if err != nil {
		log.Printf("[reports] presign failed for report %s: %v", report.ID, err)
		apiError(c, http.StatusInternalServerError, "failed to create download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":        url,
		"expires_in": int(h.cfg.SignedURLTTL.Seconds()),
	})
}

// generateReportExplanation asks the AI provider for a plain-language
// explanation of a report and saves it on the row.
// POST /api/reports/:id/generate-explanation. Owner or consent-gated doctor.
// A provider failure degrades to fixed fallback text with a 200, and nothing
// is persisted — a later retry starts clean.
func (h *Handler) generateReportExplanation(c *gin.Context) {
	report, ok := h.loadReport(c)
	if !ok {
		return
	}
	if !h.requirePatientAccess(c, report.PatientID, "generate-explanation") {
		return
	}

	userPrompt := h.buildReportPrompt(c, report)

	text, err := h.ai.generateText(c.Request.Context(), reportSystemPrompt, userPrompt)
	source := h.ai.provider
	if err != nil {
		log.Printf("[reports] %s explanation failed for report %s: %v", h.ai.provider, report.ID, err)
		c.JSON(http.StatusOK, gin.H{
			"source":   sourceFallback,
			"analysis": fallbackReportAnalysis,
			"sections": splitSections(fallbackReportAnalysis),
		})
		return
	}

	if _, err := h.db.Exec(c,
		"UPDATE medical_reports SET ai_analysis = @analysis WHERE id = @id",
		pgx.NamedArgs{"analysis": text, "id": report.ID}); err != nil {
		log.Printf("[reports] saving analysis failed for report %s: %v", report.ID, err)
		apiError(c, http.StatusInternalServerError, "failed to save analysis")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source":   source,
		"analysis": text,
		"sections": splitSections(text),
	})
}

// maxInlineReportBytes caps how much of a text report is quoted in the prompt.
const maxInlineReportBytes = 16 << 10

// buildReportPrompt renders the report metadata, the patient's health profile,
// and — for plain-text reports — the file contents as prompt lines. Binary
// formats are described by name only; there is no OCR stage.
func (h *Handler) buildReportPrompt(c *gin.Context, report medicalReport) string {
	lines := []string{"Report file: " + report.FileName}
	if report.UploadedAt != nil {
		lines = append(lines, "Uploaded: "+report.UploadedAt.Format("2006-01-02"))
	}

	patient, err := queryOne[user](h.db, c,
		"SELECT * FROM users WHERE id = @patientID",
		pgx.NamedArgs{"patientID": report.PatientID})
	if err == nil {
		if profile := profileLines(patient); len(profile) > 0 {
			lines = append(lines, "Patient profile:")
			lines = append(lines, profile...)
		}
	}

	if report.ContentType == "text/plain" {
		data, err := h.store.download(c.Request.Context(), report.StoragePath, maxInlineReportBytes)
		if err != nil {
			log.Printf("[reports] reading report %s for prompt failed: %v", report.ID, err)
		} else if len(data) > 0 {
			lines = append(lines, "Report contents:", string(data))
		}
	}

	return strings.Join(lines, "\n")
}

// deleteReport removes a report's object and row. Owner only — consent lets a
// doctor read a patient's data, never destroy it.
// DELETE /api/reports/:id. Returns 204 on success.
func (h *Handler) deleteReport(c *gin.Context) {
	report, ok := h.loadReport(c)
	if !ok {
		return
	}
	if report.PatientID != c.GetInt("user_id") {
		apiError(c, http.StatusForbidden, "only the report's owner can delete it")
		return
	}

	if err := h.store.remove(c.Request.Context(), report.StoragePath); err != nil {
		log.Printf("[reports] object delete failed for report %s: %v", report.ID, err)
		apiError(c, http.StatusInternalServerError, "failed to delete file")
		return
	}
	if _, err := h.db.Exec(c,
		"DELETE FROM medical_reports WHERE id = @id",
		pgx.NamedArgs{"id": report.ID}); err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete report")
		return
	}

	log.Printf("[reports] deleted report=%s patient=%d", report.ID, report.PatientID)
	c.Status(http.StatusNoContent)
}
