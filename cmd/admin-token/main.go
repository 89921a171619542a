// Command admin-token mints a bearer token for the admin score endpoints.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"candy-rush/auth"
	"candy-rush/config"
)

func main() {
	if err := run(flag.CommandLine, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("admin-token: %v", err)
	}
}

func run(fs *flag.FlagSet, args []string, out io.Writer) error {
	var cfg struct {
		Secret string `env:"CANDY_RUSH_JWT_SECRET"`
	}
	if err := config.ParseEnv(&cfg); err != nil {
		return err
	}
	fs.StringVar(&cfg.Secret, "secret", cfg.Secret, "HS256 signing secret (defaults to CANDY_RUSH_JWT_SECRET)")
	subject := fs.String("subject", "admin", "token subject")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if *ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	token, err := auth.NewIssuer(cfg.Secret).GenerateToken(*subject, auth.RoleAdmin, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}
