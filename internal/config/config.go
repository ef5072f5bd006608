package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

// Getenv retourne la variable d'environnement ou la valeur par défaut
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustGetenv arrête le process si la variable est absente
func MustGetenv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("❌ Variable d'environnement %s manquante", key)
	}
	return v
}
