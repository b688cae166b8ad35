package main

import (
	"log"
	"net/http"

	"papercast/internal/api"
	"papercast/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	h := api.NewServer(cfg)
	defer h.Close()
	log.Printf("papercast api listening on %s text_providers=%q speech_providers=%q", cfg.APIAddr, cfg.TextProviders, cfg.SpeechProviders)
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		log.Fatal(err)
	}
}
