// Command useradd creates an account in the signup database from the
// terminal. It reads the same configuration as the server.
package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gophsignup/internal/server/config"
	"github.com/dmitrijs2005/gophsignup/internal/useradd"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	err = useradd.Run(ctx, cfg, useradd.Terminal{
		In:         os.Stdin,
		Out:        os.Stdout,
		Log:        os.Stderr,
		PasswordFD: int(os.Stdin.Fd()),
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
}
