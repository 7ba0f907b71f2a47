// Command seed creates a couple of default users and a personal chat between
// them, so a fresh install has something to log in with.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sathishkumar1405/chat-app/internal/config"
	"github.com/Sathishkumar1405/chat-app/internal/models"
	"github.com/Sathishkumar1405/chat-app/internal/store"
)

type seedUser struct {
	name     string
	email    string
	password string
}

var defaultUsers = []seedUser{
	{"Alice", "alice@example.com", "password123"},
	{"Bob", "bob@example.com", "password123"},
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	var db store.DataStore
	if cfg.DatabaseURL != "" {
		if err := store.RunMigrations(cfg.DatabaseURL); err != nil {
			fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
			os.Exit(1)
		}
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "postgres connection failed: %v\n", err)
			os.Exit(1)
		}
		defer pg.Close()
		db = pg
	} else {
		sq, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sqlite open failed: %v\n", err)
			os.Exit(1)
		}
		defer sq.Close()
		db = sq
	}

	ids := make([]string, 0, len(defaultUsers))
	for _, su := range defaultUsers {
		existing, err := db.GetUserByEmail(ctx, su.email)
		if err != nil {
			fmt.Fprintf(os.Stderr, "user lookup failed: %v\n", err)
			os.Exit(1)
		}
		if existing != nil {
			fmt.Printf("user %s already exists\n", su.email)
			ids = append(ids, existing.ID)
			continue
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(su.password), bcrypt.DefaultCost)
		if err != nil {
			fmt.Fprintf(os.Stderr, "password hash failed: %v\n", err)
			os.Exit(1)
		}

		user := &models.User{
			ID:       uuid.NewString(),
			Name:     su.name,
			Email:    su.email,
			Password: string(hashed),
		}
		if err := db.CreateUser(ctx, user); err != nil {
			fmt.Fprintf(os.Stderr, "user create failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created user %s (%s)\n", su.name, user.ID)
		ids = append(ids, user.ID)
	}

	if len(ids) < 2 {
		return
	}

	existing, err := db.FindPersonalChat(ctx, ids[0], ids[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "chat lookup failed: %v\n", err)
		os.Exit(1)
	}
	if existing != nil {
		fmt.Println("default chat already exists")
		return
	}

	chat := &models.Chat{
		ID:      uuid.NewString(),
		Name:    defaultUsers[0].name + " & " + defaultUsers[1].name,
		Type:    models.ChatTypePersonal,
		Members: []string{ids[0], ids[1]},
		LastMessage: models.LastMessage{
			Text:      "Start of conversation",
			Timestamp: time.Now().UnixMilli(),
		},
	}
	if err := db.CreateChat(ctx, chat); err != nil {
		fmt.Fprintf(os.Stderr, "chat create failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created chat %s\n", chat.ID)
}
