// Command token mints a signed bearer token for local development and smoke
// tests. It reads JWT_SECRET, JWT_ISSUER, JWT_AUDIENCE and JWT_TTL the same
// way the server does.
//
//	token -user fo-1 -name "Field Officer" -roles field_officer
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/stwalsh4118/cityhall/internal/auth"
	"github.com/stwalsh4118/cityhall/internal/config"
)

func main() {
	user := flag.String("user", "", "subject (user id) of the token")
	name := flag.String("name", "", "display name")
	roles := flag.String("roles", string(auth.RoleCitizen), "comma separated roles")
	ttl := flag.Duration("ttl", 0, "lifetime of the token (defaults to JWT_TTL)")
	flag.Parse()

	cfg, err := config.LoadAuth()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	lifetime := cfg.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	principal := auth.Principal{UserID: *user, Name: *name, Roles: parseRoles(*roles)}
	token, err := auth.NewTokenService(cfg.JWTSecret, cfg.Issuer, cfg.Audience).Issue(principal, lifetime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", time.Now().Add(lifetime).UTC().Format(time.RFC3339))
}

func parseRoles(raw string) []auth.Role {
	var roles []auth.Role
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, auth.Role(r))
		}
	}
	return roles
}
