// Command hashpassword prints a bcrypt hash for ADMIN_PASSWORD_HASH so the
// plain admin password does not have to live in the environment.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"admindash/internal/backend"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	password, err := readPassword(flag.Args())
	if err != nil {
		slog.Error("Failed to read password", "error", err)
		os.Exit(1)
	}

	hash, err := backend.HashPassword(password, *cost)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		os.Exit(1)
	}

	fmt.Println(string(hash))
}

// readPassword takes the first argument, or one line from stdin.
func readPassword(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("no password given: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	return password, nil
}
