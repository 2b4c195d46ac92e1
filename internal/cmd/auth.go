package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/kush-sh/kush/internal/action"
	"github.com/kush-sh/kush/internal/config"
)

// buildAuthPayloads assembles the ordered list of credentials Engine
// RunAction tries for each target: the user name first (SSH requires
// it before any credential), then whichever of ssh-key, password-file,
// and ssh-agent were configured.
func buildAuthPayloads(conf *config.Config) ([]action.AuthPayload, error) {
	payloads := []action.AuthPayload{action.UserAuth(conf.User())}

	if path := conf.SSHKey(); path != "" {
		key, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading ssh key %s: %w", path, err)
		}
		payloads = append(payloads, action.SSHKeyAuth(string(key)))
	}

	if path := conf.PasswordFile(); path != "" {
		password, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading password file %s: %w", path, err)
		}
		payloads = append(payloads, action.PasswordAuth(strings.TrimRight(string(password), "\r\n")))
	}

	if socket := conf.SSHAgent(); socket != "" {
		payloads = append(payloads, action.SSHAgentAuth(socket))
	}

	return payloads, nil
}
