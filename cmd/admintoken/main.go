package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"donasi/internal/middleware"
)

// admintoken mints a bearer token for the admin routes.
func main() {
	var (
		subjectFlag string
		ttlFlag     time.Duration
		secretFlag  string
	)
	flag.StringVar(&subjectFlag, "subject", "admin", "name recorded in the token subject")
	flag.DurationVar(&ttlFlag, "ttl", 24*time.Hour, "token lifetime")
	flag.StringVar(&secretFlag, "secret", "", "signing secret (fallbacks to ADMIN_JWT_SECRET)")
	flag.Parse()

	_ = godotenv.Load()

	secret := strings.TrimSpace(secretFlag)
	if secret == "" {
		secret = os.Getenv("ADMIN_JWT_SECRET")
	}
	if secret == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_JWT_SECRET is required via -secret or environment")
		os.Exit(1)
	}
	if ttlFlag <= 0 {
		fmt.Fprintln(os.Stderr, "-ttl must be positive")
		os.Exit(1)
	}

	token, err := middleware.SignAdminToken(secret, strings.TrimSpace(subjectFlag), ttlFlag, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
