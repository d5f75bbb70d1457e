package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/oncreesaas/oncree/internal/auth/app"
	"github.com/oncreesaas/oncree/pkg/cryptox"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "keygen" {
		if err := keygen(os.Args[2:]); err != nil {
			log.Fatalf("keygen: %v", err)
		}
		return
	}

	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}

// keygen writes a fresh Ed25519 signing key for AUTH_SIGNING_KEY_FILE.
func keygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	out := fs.String("out", "signing-key.pem", "path of the PEM file to create")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := cryptox.WriteEd25519KeyFile(*out); err != nil {
		return err
	}
	fmt.Printf("wrote %s, set AUTH_SIGNING_KEY_FILE=%s\n", *out, *out)
	return nil
}
