// Command devtoken prints a bearer token for local testing. Identity is
// normally issued by the citizen portal.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"facilityhub/internal/config"
	"facilityhub/internal/domain"
	jwtsvc "facilityhub/internal/pkg/jwt"
)

func main() {
	userID := flag.Int64("user", 1, "user id")
	role := flag.String("role", domain.RoleStaff, "citizen, staff or admin")
	name := flag.String("name", "", "display name")
	email := flag.String("email", "", "email")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to JWT_TTL")
	flag.Parse()

	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if config.IsProdLike(cfg.AppEnv) {
		log.Fatal("devtoken refuses to run with a prod/release APP_ENV")
	}

	switch *role {
	case domain.RoleCitizen, domain.RoleStaff, domain.RoleAdmin:
	default:
		log.Fatalf("unknown role %q", *role)
	}

	lifetime := cfg.JWTTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, err := jwtsvc.New(cfg.JWTSecret, lifetime).Sign(jwtsvc.Claims{
		UserID: *userID,
		Role:   *role,
		Name:   *name,
		Email:  *email,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
	log.Printf("token user_id=%d role=%s expires=%s", *userID, *role, time.Now().Add(lifetime).Format(time.RFC3339))
}
