package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"cccd-api.backend/internal/config"
	"cccd-api.backend/pkg/jwt"
)

// token-gen mints a bearer token for the key-management API, for operators
// and local testing. Production tokens come from the account portal.
func main() {
	userID := flag.Int64("user-id", 0, "user id to embed in the token (required)")
	email := flag.String("email", "", "user email")
	role := flag.String("role", "user", "token role: user or admin")
	flag.Parse()

	if *userID <= 0 {
		log.Fatal("--user-id is required and must be positive")
	}
	if *role != "user" && *role != "admin" {
		log.Fatalf("invalid role: %s (allowed: user, admin)", *role)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)
	pair, err := jwtService.GenerateTokenPair(*userID, *email, *role)
	if err != nil {
		log.Fatalf("failed to generate tokens: %v", err)
	}

	fmt.Printf("ACCESS_TOKEN=%s\n", pair.AccessToken)
	fmt.Printf("REFRESH_TOKEN=%s\n", pair.RefreshToken)
}
