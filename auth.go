package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a pre-computed bcrypt hash used when a login username isn't found.
// Running bcrypt against it (instead of returning early) keeps response time
// constant, preventing timing-based username enumeration.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy"), bcrypt.DefaultCost)

// validRoles is the set of allowed account roles. Reject unknown values with
// 400 rather than letting the DB check constraint return a cryptic 500.
var validRoles = map[string]bool{
	rolePatient: true,
	roleDoctor:  true,
}

// register creates an account with a bcrypt-hashed password and returns a
// fresh token so the client is signed in immediately.
// POST /api/register (public — no auth required).
func (h *Handler) register(c *gin.Context) {
	var body struct {
		Username  string  `json:"username"`
		Email     string  `json:"email"`
		Password  string  `json:"password"`
		Role      string  `json:"role"`
		Specialty *string `json:"specialty"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	body.Username = strings.TrimSpace(body.Username)
	body.Email = strings.TrimSpace(body.Email)
	if body.Username == "" || body.Email == "" {
		apiError(c, http.StatusBadRequest, "username and email are required")
		return
	}
	if len(body.Password) < 8 {
		apiError(c, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if body.Role == "" {
		body.Role = rolePatient
	}
	if !validRoles[body.Role] {
		apiError(c, http.StatusBadRequest, "role must be one of: patient, doctor")
		return
	}

	var taken bool
	err := h.db.QueryRow(c,
		"SELECT EXISTS (SELECT 1 FROM users WHERE username = @username OR email = @email)",
		pgx.NamedArgs{"username": body.Username, "email": body.Email}).Scan(&taken)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create user")
		return
	}
	if taken {
		apiError(c, http.StatusConflict, "username or email already in use")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create user")
		return
	}

	u, err := queryOne[user](h.db, c,
		`INSERT INTO users (username, email, password, role, specialty)
		 VALUES (@username, @email, @password, @role, @specialty)
		 RETURNING *`,
		pgx.NamedArgs{
			"username": body.Username, "email": body.Email,
			"password": string(hash), "role": body.Role, "specialty": body.Specialty,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := generateToken(h.cfg, u.ID, u.Role)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to issue token")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "user": u})
}

// login verifies username/password and returns a signed JWT.
// POST /api/login (public — no auth required).
func (h *Handler) login(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	u, lookupErr := queryOne[user](h.db, c,
		"SELECT * FROM users WHERE username = @username",
		pgx.NamedArgs{"username": body.Username})

	// Always run bcrypt to keep response time constant regardless of whether the
	// username was found — prevents timing-based username enumeration.
	hashToCheck := string(dummyHash)
	if lookupErr == nil {
		hashToCheck = u.Password
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(hashToCheck), []byte(body.Password))

	if lookupErr != nil {
		apiError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if compareErr != nil {
		apiError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := generateToken(h.cfg, u.ID, u.Role)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to issue token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user_id": u.ID, "role": u.Role})
}

// authMiddleware validates the Bearer JWT and sets user_id and role on the
// context. The claims carry everything downstream handlers need, so no DB
// lookup happens per request.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		userID, role, err := parseToken(h.cfg, raw)
		if err != nil {
			apiError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	}
}
