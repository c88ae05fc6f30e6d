package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kimberlyPrest/disparo-whatsapp/internal/config"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/db/gormdb"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/campaign"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/message"
	campRepo "github.com/kimberlyPrest/disparo-whatsapp/internal/repository/gorm/campaign"
	mesgRepo "github.com/kimberlyPrest/disparo-whatsapp/internal/repository/gorm/message"
)

func main() {
	ctx := context.Background()

	// Load application configuration (DB, Redis, etc.) from env/.env.
	cfg := config.New()

	// Open a Postgres connection through our GORM adapter.
	gormAdapter, err := gormdb.New(cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("[Seed] Failed to connect to database: %v", err)
	}

	log.Printf("[Seed] Connected to database %q", cfg.DB.Name)

	// 1) AutoMigrate: make sure all tables exist.
	// We go through the adapter to access the underlying *gorm.DB.
	rawDB := gormAdapter.Conn().(*gorm.DB)

	if err := rawDB.AutoMigrate(
		&campRepo.CampaignModel{},
		&mesgRepo.MessageModel{},
		&mesgRepo.RecipientModel{},
	); err != nil {
		log.Fatalf("[Seed] AutoMigrate failed: %v", err)
	}
	log.Println("[Seed] Schema is up to date (AutoMigrate completed).")

	// 2) Primitive seeding: one demo campaign with N waiting messages.
	const seedCount = 20

	campaignRepository := campRepo.NewRepository(gormAdapter)
	messageRepository := mesgRepo.NewRepository(gormAdapter)

	now := time.Now()

	// Use the domain constructor so we respect domain rules:
	// status, timestamps, policy validation.
	demo, err := campaign.New(
		uuid.New(),
		fmt.Sprintf("Seed campaign %s", now.Format("2006-01-02 15:04:05")),
		campaign.PolicyConfig{
			MinInterval:   5,
			MaxInterval:   10,
			BusinessHours: campaign.StrategyIgnore,
		},
		now,
		now,
		seedCount,
	)
	if err != nil {
		log.Fatalf("[Seed] Failed to build campaign: %v", err)
	}

	if err := campaignRepository.Save(ctx, demo); err != nil {
		log.Fatalf("[Seed] Failed to save campaign: %v", err)
	}
	log.Printf("[Seed] Created campaign %s", demo.ID)

	log.Printf("[Seed] Inserting %d random recipients...", seedCount)

	recipients := make([]*message.Recipient, 0, seedCount)
	msgs := make([]*message.Message, 0, seedCount)

	for i := 0; i < seedCount; i++ {
		rec, err := message.NewRecipient(demo.ID, randomName(i+1), randomPhone(), randomBody(i+1))
		if err != nil {
			log.Fatalf("[Seed] Failed to build recipient #%d: %v", i+1, err)
		}
		recipients = append(recipients, rec)
		msgs = append(msgs, message.NewMessage(demo.ID, rec.ID, now))
	}

	if err := messageRepository.SaveBatch(ctx, recipients, msgs); err != nil {
		log.Fatalf("[Seed] Failed to save campaign rows: %v", err)
	}

	log.Printf("[Seed] Done. Campaign %s has %d waiting messages.", demo.ID, seedCount)
}

// randomPhone generates a simple fake phone number in an E.164-like format.
// Example output: +5511987654321
func randomPhone() string {
	base := "+5511"
	n := rand.Intn(900000000) + 100000000 // 9 digits
	return fmt.Sprintf("%s%d", base, n)
}

// randomName generates a simple recipient name for seeding.
func randomName(i int) string {
	return fmt.Sprintf("Contact %03d", i)
}

// randomBody generates a simple message body for seeding.
func randomBody(i int) string {
	now := time.Now().Format("15:04:05")
	return fmt.Sprintf("Seed message #%d created at %s", i, now)
}
