package configs

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

var (
	JWTSecret string

	// Redirect gateway (online channel)
	PaygateTmnCode        string
	PaygateHashSecret     string
	PaygatePayURL         string
	PaygateReturnURL      string
	PaygateResultRedirect string

	// Midtrans (snap channel)
	MidtransServerKey  string
	MidtransProduction bool
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ Tidak menemukan .env file, menggunakan ENV dari sistem")
		} else {
			log.Println("✅ .env file berhasil dimuat!")
		}
	} else {
		log.Println("🚀 Running in Railway, menggunakan ENV dari sistem")
	}

	JWTSecret = GetEnv("JWT_SECRET")

	PaygateTmnCode = GetEnv("PAYGATE_TMN_CODE")
	PaygateHashSecret = GetEnv("PAYGATE_HASH_SECRET")
	PaygatePayURL = GetEnv("PAYGATE_PAY_URL")
	PaygateReturnURL = GetEnv("PAYGATE_RETURN_URL")
	PaygateResultRedirect = GetEnv("PAYGATE_RESULT_REDIRECT", "/payment/result")

	MidtransServerKey = GetEnv("MIDTRANS_SERVER_KEY")
	MidtransProduction = GetEnv("MIDTRANS_ENV", "sandbox") == "production"

	if JWTSecret == "" {
		log.Println("❌ JWT_SECRET belum diset!")
	}
	if PaygateHashSecret == "" {
		log.Println("❌ PAYGATE_HASH_SECRET belum diset! Online checkout akan gagal.")
	}
	if MidtransServerKey == "" {
		log.Println("⚠️ MIDTRANS_SERVER_KEY kosong, channel snap nonaktif.")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}
