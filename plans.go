package main

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

/* ─── Prompt constants ───────────────────────────────────────────────── */

// The plan prompts pin the reply to a fixed set of "Label:" headings so
// splitSections can carve it reliably.

const dietSystemPrompt = `You are a dietician writing a practical one-week eating plan.
Write plain text under exactly these headings, each on its own line:
Overview:
Breakfast:
Lunch:
Dinner:
Snacks:
Hydration:
Keep the advice specific and grounded in the profile provided. Flag anything the person should discuss with a doctor. No markdown tables.`

const exerciseSystemPrompt = `You are a fitness coach writing a practical one-week exercise plan.
Write plain text under exactly these headings, each on its own line:
Overview:
Warm Up:
Main Workout:
Cool Down:
Weekly Schedule:
Safety Notes:
Match the intensity to the profile provided. Flag anything the person should discuss with a doctor. No markdown tables.`

// Served when the provider call fails, so the page still renders a full plan
// shape. Same heading convention as the prompts.
const fallbackDietPlan = `Overview:
We couldn't generate a personalized plan right now, so here is a general starting point. Re-generate later for advice tuned to your profile.
Breakfast:
Oats or whole-grain toast with a protein source such as eggs or yogurt, plus a piece of fruit.
Lunch:
A palm-sized portion of lean protein, a generous serving of vegetables, and a fist-sized portion of whole grains or legumes.
Dinner:
Similar to lunch, lighter on the grains. Grilled or baked over fried.
Snacks:
Fruit, nuts, or plain yogurt. Keep packaged snacks to once a day.
Hydration:
Six to eight glasses of water spread across the day; more on active days.`

const fallbackExercisePlan = `Overview:
We couldn't generate a personalized plan right now, so here is a general starting point. Re-generate later for advice tuned to your profile.
Warm Up:
Five to ten minutes of brisk walking and light dynamic stretches before every session.
Main Workout:
Thirty minutes of moderate cardio (walking, cycling, swimming) most days, with two short full-body strength sessions per week.
Cool Down:
Five minutes of slow walking followed by gentle static stretching.
Weekly Schedule:
Alternate cardio and strength days, with at least one full rest day.
Safety Notes:
Stop if you feel chest pain, dizziness, or joint pain, and check with a doctor before starting anything intense.`

/* ─── Handlers ───────────────────────────────────────────────────────── */

// planRequest is the optional request body for the plan endpoints.
type planRequest struct {
	Goal        string `json:"goal"`
	Preferences string `json:"preferences"`
}

// planResponse is the response shape for both plan endpoints. Source names the
// provider that wrote the text, or "fallback".
type planResponse struct {
	Source   string        `json:"source"`
	Sections []planSection `json:"sections"`
}

// generateDietPlan returns an AI-written diet plan for the authenticated
// user's health profile.
// POST /api/plans/diet.
func (h *Handler) generateDietPlan(c *gin.Context) {
	h.generatePlan(c, dietSystemPrompt, fallbackDietPlan, "diet")
}

// generateExercisePlan returns an AI-written exercise plan.
// POST /api/plans/exercise.
func (h *Handler) generateExercisePlan(c *gin.Context) {
	h.generatePlan(c, exerciseSystemPrompt, fallbackExercisePlan, "exercise")
}

// generatePlan runs the shared prompt-call-split flow. A provider failure
// degrades to the fixed fallback text with a 200 — the page renders either way.
func (h *Handler) generatePlan(c *gin.Context, systemPrompt, fallback, kind string) {
	var body planRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			apiError(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	userPrompt := h.buildProfilePrompt(c, body)

	text, err := h.ai.generateText(c.Request.Context(), systemPrompt, userPrompt)
	source := h.ai.provider
	if err != nil {
		log.Printf("[plans] %s %s plan failed: %v", h.ai.provider, kind, err)
		text = fallback
		source = sourceFallback
	}

	c.JSON(http.StatusOK, planResponse{Source: source, Sections: splitSections(text)})
}

// buildProfilePrompt renders the request hints and the user's health profile
// as prompt lines. Works without a DB so the plan endpoints degrade to a
// generic plan instead of failing when the profile can't be loaded.
func (h *Handler) buildProfilePrompt(c *gin.Context, req planRequest) string {
	var lines []string
	if strings.TrimSpace(req.Goal) != "" {
		lines = append(lines, "Goal: "+strings.TrimSpace(req.Goal))
	}
	if strings.TrimSpace(req.Preferences) != "" {
		lines = append(lines, "Preferences: "+strings.TrimSpace(req.Preferences))
	}

	if h.db != nil {
		u, err := queryOne[user](h.db, c,
			"SELECT * FROM users WHERE id = @userID",
			pgx.NamedArgs{"userID": c.GetInt("user_id")})
		if err == nil {
			lines = append(lines, profileLines(u)...)
		}
	}

	if len(lines) == 0 {
		lines = append(lines, "No profile on file; assume a generally healthy adult.")
	}
	return strings.Join(lines, "\n")
}

// profileLines renders the non-empty health profile fields, one per line.
func profileLines(u user) []string {
	var lines []string
	if u.Age != nil {
		lines = append(lines, fmt.Sprintf("Age: %d", *u.Age))
	}
	if u.Gender != nil {
		lines = append(lines, "Gender: "+*u.Gender)
	}
	if u.HeightCM != nil {
		lines = append(lines, fmt.Sprintf("Height: %.0f cm", *u.HeightCM))
	}
	if u.WeightKG != nil {
		lines = append(lines, fmt.Sprintf("Weight: %.1f kg", *u.WeightKG))
	}
	if u.BMI != nil && u.BMIStatus != nil {
		lines = append(lines, fmt.Sprintf("BMI: %.1f (%s)", *u.BMI, *u.BMIStatus))
	}
	if u.ActivityLevel != nil {
		lines = append(lines, "Activity level: "+*u.ActivityLevel)
	}
	if u.BloodPressure != nil {
		lines = append(lines, "Blood pressure: "+*u.BloodPressure)
	}
	if u.BloodSugar != nil {
		lines = append(lines, "Blood sugar: "+*u.BloodSugar)
	}
	return lines
}
