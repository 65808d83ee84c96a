package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/PatrickTobler/agent-observation-tool/internal/auth"
	"github.com/PatrickTobler/agent-observation-tool/internal/store"
)

const (
	// MinPasswordLength is the minimum password length requirement
	MinPasswordLength = 8
	// BcryptCost is the cost factor for bcrypt hashing (10 = ~100ms)
	BcryptCost = 10
)

var (
	emailRegex = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

func main() {
	// Parse command-line flags
	workspace := flag.String("workspace", "", "Workspace name (required)")
	email := flag.String("email", "", "Email of the first dashboard user (required)")
	password := flag.String("password", "", "Password (required, min 8 chars)")
	keyName := flag.String("key-name", "default", "Name for the first ingestion API key")
	flag.Parse()

	// Initialize OpenTelemetry for observability
	if err := initTracer(); err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}

	// Validate inputs
	if err := validateInputs(*workspace, *email, *password); err != nil {
		log.Fatalf("Validation error: %v", err)
	}

	// Get database connection string from environment
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatalf("DATABASE_URL is required")
	}

	// Connect to PostgreSQL
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Test database connection
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to PostgreSQL database")

	st := store.NewPostgres(pool)
	if err := st.Migrate(ctx); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	if err := seedWorkspace(ctx, st, *workspace, *email, *password, *keyName); err != nil {
		log.Fatalf("Failed to seed workspace: %v", err)
	}
}

// validateInputs validates seed input according to security requirements
func validateInputs(workspace, email, password string) error {
	// Validate workspace name
	if strings.TrimSpace(workspace) == "" {
		return fmt.Errorf("workspace is required and cannot be empty")
	}

	// Validate email format
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}

	// Validate password strength
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}

	// Check for password complexity (at least one letter and one number)
	hasLetter := regexp.MustCompile(`[a-zA-Z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)

	if !hasLetter || !hasNumber {
		return fmt.Errorf("password must contain at least one letter and one number")
	}

	return nil
}

// seedWorkspace creates a workspace, its first dashboard user and its first
// ingestion API key. The key secret is printed once and never stored.
func seedWorkspace(ctx context.Context, st store.Store, workspace, email, password, keyName string) error {
	tracer := otel.Tracer("seed-workspace")
	ctx, span := tracer.Start(ctx, "seed_workspace")
	defer span.End()

	// Hash password using bcrypt
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	ws, err := st.CreateWorkspace(ctx, strings.TrimSpace(workspace))
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	user, err := st.CreateUser(ctx, ws.ID, strings.ToLower(strings.TrimSpace(email)), string(hashedPassword))
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique constraint") {
			return fmt.Errorf("user with email %s already exists", email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	secret, prefix := auth.GenerateAPIKeySecret()
	key, err := st.CreateAPIKey(ctx, ws.ID, keyName, auth.HashSecret(secret), prefix)
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}

	log.Printf("✓ Successfully seeded workspace")
	log.Printf("  Workspace ID: %s", ws.ID)
	log.Printf("  User ID: %s", user.ID)
	log.Printf("  Email: %s", user.Email)
	log.Printf("  API key ID: %s", key.ID)
	log.Printf("  API key secret (store this now, it is not shown again): %s", secret)

	return nil
}

// initTracer initializes OpenTelemetry tracing
func initTracer() error {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)

	return nil
}
