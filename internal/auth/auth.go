package auth

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"syscall"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

const serviceName = "amrelay"

// Provider describes where one provider credential lives.
type Provider struct {
	Name        string
	DisplayName string
	Account     string
	EnvVar      string
}

var providers = map[string]Provider{
	"camb":   {Name: "camb", DisplayName: "camb.ai", Account: "camb-api-key", EnvVar: "CAMB_API_KEY"},
	"openai": {Name: "openai", DisplayName: "OpenAI", Account: "openai-api-key", EnvVar: "OPENAI_API_KEY"},
	"gemini": {Name: "gemini", DisplayName: "Gemini", Account: "gemini-api-key", EnvVar: "GEMINI_API_KEY"},
	"google": {Name: "google", DisplayName: "Google Translate", Account: "google-translate-api-key", EnvVar: "GOOGLE_TRANSLATE_API_KEY"},
}

// Services returns the supported service names, sorted.
func Services() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the provider for a service name.
func Lookup(service string) (Provider, error) {
	p, ok := providers[strings.ToLower(strings.TrimSpace(service))]
	if !ok {
		return Provider{}, fmt.Errorf("invalid service %q. Must be one of: %s", service, strings.Join(Services(), ", "))
	}
	return p, nil
}

// GetKey retrieves the API key for a service. The environment wins; the
// keychain is consulted only when allowKeychain is set.
func GetKey(service string, allowKeychain bool) (string, string) {
	p, err := Lookup(service)
	if err != nil {
		return "", ""
	}

	if key := strings.TrimSpace(os.Getenv(p.EnvVar)); key != "" {
		return key, "Environment Variable"
	}

	if allowKeychain {
		key, err := keyring.Get(serviceName, p.Account)
		if err == nil && strings.TrimSpace(key) != "" {
			return strings.TrimSpace(key), "Keychain"
		}
	}

	return "", ""
}

// SaveKey saves the key for a specific service to the OS Keychain.
func SaveKey(service, key string) error {
	p, err := Lookup(service)
	if err != nil {
		return err
	}
	return keyring.Set(serviceName, p.Account, strings.TrimSpace(key))
}

// DeleteKey removes the key for a specific service from the OS Keychain.
// A missing key is not an error.
func DeleteKey(service string) error {
	p, err := Lookup(service)
	if err != nil {
		return err
	}
	if err := keyring.Delete(serviceName, p.Account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// GetStatus returns whether a key exists for a specific service in the keychain.
func GetStatus(service string) bool {
	p, err := Lookup(service)
	if err != nil {
		return false
	}
	key, err := keyring.Get(serviceName, p.Account)
	if err != nil || key == "" {
		return false
	}
	return true
}

// PromptForAPIKey securely prompts the user for their API key.
func PromptForAPIKey(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

// GetEnvKey retrieves the key from environment variables only.
func GetEnvKey(service string) (string, bool) {
	p, err := Lookup(service)
	if err != nil {
		return "", false
	}
	key := strings.TrimSpace(os.Getenv(p.EnvVar))
	if key == "" {
		return "", false
	}
	return key, true
}
