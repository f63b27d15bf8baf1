package commands

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"gigcal/internal/auth"
)

// HashPassword handles the hash-password subcommand: it prompts for a
// username and password and writes the basic-auth credentials file the
// server checks mutating requests against.
func HashPassword(args []string) {
	fs := flag.NewFlagSet("hash-password", flag.ExitOnError)
	file := fs.String("file", "./data/auth.secret", "path of the credentials file to write")
	overwrite := fs.Bool("overwrite", false, "replace an existing credentials file")
	unmask := fs.Bool("insecure-unmask-password", false, "show the password as plain text")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gigcal hash-password [OPTIONS]\n\n")
		fmt.Fprintf(os.Stderr, "Creates a credentials file with an Argon2id password hash.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	fmt.Print("Enter username: ")
	var username string
	if _, err := fmt.Scanln(&username); err != nil {
		fmt.Fprintf(os.Stderr, "error reading username: %v\n", err)
		os.Exit(1)
	}
	if username == "" {
		fmt.Fprintln(os.Stderr, "username cannot be empty")
		os.Exit(1)
	}

	var password, confirm string
	if *unmask {
		fmt.Fprintln(os.Stderr, "WARNING: password will be visible on screen")
		fmt.Print("Enter password:   ")
		fmt.Scanln(&password)
		fmt.Print("Confirm password: ")
		fmt.Scanln(&confirm)
	} else {
		password = readPasswordWithMask("Enter password:   ")
		confirm = readPasswordWithMask("Confirm password: ")
	}

	if password == "" {
		fmt.Fprintln(os.Stderr, "password cannot be empty")
		os.Exit(1)
	}
	if password != confirm {
		fmt.Fprintln(os.Stderr, "passwords do not match")
		os.Exit(1)
	}

	if err := auth.CreateFile(*file, username, password, *overwrite); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("credentials written to %s (mode 0400, user %s)\n", *file, username)
}

// readPasswordWithMask reads a password and echoes asterisks. Falls
// back to fully hidden input if the terminal can't be put in raw mode.
func readPasswordWithMask(prompt string) string {
	fmt.Print(prompt)

	oldState, err := term.GetState(int(syscall.Stdin))
	if err != nil {
		password, _ := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		return string(password)
	}
	defer term.Restore(int(syscall.Stdin), oldState)

	if _, err := term.MakeRaw(int(syscall.Stdin)); err != nil {
		password, _ := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		return string(password)
	}

	var password []byte
	reader := bufio.NewReader(os.Stdin)
	for {
		char, _, err := reader.ReadRune()
		if err != nil {
			break
		}
		switch char {
		case '\n', '\r':
			fmt.Println()
			return string(password)
		case 127, 8: // backspace / delete
			if len(password) > 0 {
				password = password[:len(password)-1]
				fmt.Print("\b \b")
			}
		case 3: // ctrl-c
			fmt.Println()
			os.Exit(1)
		default:
			if char >= 32 && char <= 126 {
				password = append(password, byte(char))
				fmt.Print("*")
			}
		}
	}

	fmt.Println()
	return string(password)
}
