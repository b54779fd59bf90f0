package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	log.SetPrefix("healthsync-api: ")
	log.SetFlags(0)

	// .env is for local development; deployed environments inject real vars.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}

	cfg := loadConfig()

	pool := getDBPool(cfg)
	defer pool.Close()

	store, err := newObjectStore(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to set up object storage: %v\n", err)
		os.Exit(1)
	}

	h := &Handler{
		db:    pool,
		cfg:   cfg,
		store: store,
		ai:    newAIClient(cfg),
	}

	fmt.Println("Starting gin app...")

	router := gin.Default()
	router.SetTrustedProxies(nil)
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	}))
	h.registerRoutes(router)

	scheduler := h.startScheduler()
	defer scheduler.Stop()

	router.Run(":" + cfg.Port)
}
