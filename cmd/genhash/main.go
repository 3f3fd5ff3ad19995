package main

import (
	"flag"
	"fmt"
	"log"

	"cccd-api.backend/pkg/crypto"
)

func main() {
	password := flag.String("password", "", "password to hash (required)")
	flag.Parse()

	if *password == "" {
		log.Fatal("--password is required")
	}

	hash, err := crypto.HashPassword(*password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	fmt.Println(hash)
}
