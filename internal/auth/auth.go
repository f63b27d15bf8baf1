package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/crypto/argon2"

	appLog "gigcal/internal/log"
)

// Argon2id parameters (OWASP recommended).
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

// ErrNoCredentials is returned by Load when the credentials file does
// not exist. Callers decide whether that means "open access" or a
// startup failure.
var ErrNoCredentials = errors.New("auth: credentials file not found")

// Credentials holds the single admin user allowed to mutate data.
type Credentials struct {
	Username string
	hash     string
}

// Load reads a credentials file in "username:encoded-hash" form.
func Load(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("auth: read %s: %w", path, err)
	}

	line := strings.TrimSpace(string(data))
	user, hash, ok := strings.Cut(line, ":")
	if !ok || user == "" || hash == "" {
		return nil, fmt.Errorf("auth: %s: expected username:hash", path)
	}
	return &Credentials{Username: user, hash: hash}, nil
}

// HashPassword creates an encoded Argon2id hash of the password, in
// the usual "$argon2id$v=19$m=...,t=...,p=...$salt$hash" form.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("auth: generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argon2Memory, argon2Time, argon2Threads, b64Salt, b64Hash), nil
}

// VerifyPassword checks a password against an encoded Argon2id hash
// using the parameters embedded in the hash.
func VerifyPassword(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false, errors.New("auth: invalid hash format")
	}
	if parts[1] != "argon2id" {
		return false, errors.New("auth: not an argon2id hash")
	}

	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, fmt.Errorf("auth: parse hash parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("auth: decode salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("auth: decode hash: %w", err)
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, uint8(threads), uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

// CreateFile writes a credentials file with a freshly hashed password.
// The file is read-only (0400); an existing file is replaced only when
// overwrite is set.
func CreateFile(path, username, password string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil {
		if !overwrite {
			return fmt.Errorf("auth: %s already exists (use -overwrite)", path)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("auth: remove existing file: %w", err)
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	content := fmt.Sprintf("%s:%s\n", username, hash)
	if err := os.WriteFile(path, []byte(content), 0o400); err != nil {
		return fmt.Errorf("auth: write %s: %w", path, err)
	}
	return nil
}

// Require wraps a handler with HTTP Basic Auth against creds. A nil
// creds disables the check (auth not configured).
func Require(creds *Credentials, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if creds == nil {
			next(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(creds.Username)) == 1

		passMatch := false
		if ok && userMatch {
			var err error
			passMatch, err = VerifyPassword(pass, creds.hash)
			if err != nil {
				appLog.Error("auth: verify failed", err)
				passMatch = false
			}
		}

		if !ok || !userMatch || !passMatch {
			w.Header().Set("WWW-Authenticate", `Basic realm="gigcal admin"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			appLog.Warn("auth: rejected request", "remote", r.RemoteAddr, "user", user)
			return
		}

		next(w, r)
	}
}
