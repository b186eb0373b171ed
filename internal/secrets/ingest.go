package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// "Service" groups the engine's secrets in the OS keychain.
	KeyringService = "apptrack"

	ingestAccount = "apptrack:ingest"

	// env override for headless deployments without a keychain
	ingestSecretEnv = "APPTRACK_INGEST_SECRET"
)

// GetIngestSecret returns the shared secret the extractor must present on
// POST /ingest. Env wins over the keychain so containers can inject it.
func GetIngestSecret() (string, error) {
	if s := strings.TrimSpace(os.Getenv(ingestSecretEnv)); s != "" {
		return s, nil
	}
	s, err := keyring.Get(KeyringService, ingestAccount)
	if err == nil && strings.TrimSpace(s) != "" {
		return s, nil
	}
	return "", errors.New("ingest secret not found (set it in keychain or via APPTRACK_INGEST_SECRET)")
}

func SetIngestSecret(secret string) error {
	if strings.TrimSpace(secret) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, ingestAccount, secret)
}

func DeleteIngestSecret() error {
	return keyring.Delete(KeyringService, ingestAccount)
}
