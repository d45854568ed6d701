// Command auth runs the work-log identity service: credential login,
// password reset and user administration.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/worklog/internal/auth/app"
)

func main() {
	envFile := flag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	showVersion := flag.Bool("version", false, "print the build version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(app.BuildVersion)
		return
	}

	// Values already in the environment win over the file, and a missing
	// default file is not an error.
	if err := godotenv.Load(*envFile); err != nil && *envFile != ".env" {
		log.Fatalf("failed to load %s: %v", *envFile, err)
	}

	application, err := app.New(app.LoadConfig())
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Printf("application error: %v", err)
		os.Exit(1)
	}
}
