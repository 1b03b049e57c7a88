// cmd/adduser/main.go
// Creates or updates a user in the database.
//
// Usage:
//
//	go run ./cmd/adduser -username rita -password testing [-admin]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/config"
	bundb "github.com/brunomigmarques/CiclismoPortugal-sub006/db"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/handlers"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/models"
)

func main() {
	username := flag.String("username", "", "username (required)")
	password := flag.String("password", "", "plain-text password (required)")
	admin := flag.Bool("admin", false, "grant access to the admin routes")
	flag.Parse()

	hash, err := handlers.HashPasswordForUser(*username, *password)
	if err != nil {
		log.Fatal(err)
	}

	cfg := config.Load()
	db := bundb.Setup(cfg)
	defer db.Close()

	ctx := context.Background()
	if err := bundb.CreateTables(ctx, db); err != nil {
		log.Fatal("create tables:", err)
	}

	user := &models.User{
		Username: strings.TrimSpace(*username),
		Password: hash,
		IsAdmin:  *admin,
	}
	if err := bundb.NewStore(db).UpsertUser(ctx, user); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("user %q saved (admin=%v)\n", user.Username, user.IsAdmin)
}
