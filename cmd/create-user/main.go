// CLI tool to create a patient or doctor account with a bcrypt-hashed password.
// Usage: go run ./cmd/create-user (from the repo root)
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		os.Exit(1)
	}

	conn, err := pgx.Connect(context.Background(), os.Getenv("DB_URL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(context.Background())

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)

	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Password: ")
	password, _ := reader.ReadString('\n')
	password = strings.TrimSpace(password)

	fmt.Print("Role (patient/doctor) [patient]: ")
	role, _ := reader.ReadString('\n')
	role = strings.TrimSpace(role)
	if role == "" {
		role = "patient"
	}
	if role != "patient" && role != "doctor" {
		fmt.Fprintf(os.Stderr, "Role must be patient or doctor, got %q\n", role)
		os.Exit(1)
	}

	var specialty *string
	if role == "doctor" {
		fmt.Print("Specialty: ")
		s, _ := reader.ReadString('\n')
		if s = strings.TrimSpace(s); s != "" {
			specialty = &s
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing password: %v\n", err)
		os.Exit(1)
	}

	var userID int
	err = conn.QueryRow(context.Background(),
		`INSERT INTO users (username, email, password, role, specialty)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		username, email, string(hash), role, specialty,
	).Scan(&userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nUser created successfully!\n")
	fmt.Printf("  ID:       %d\n", userID)
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Role:     %s\n", role)
}
