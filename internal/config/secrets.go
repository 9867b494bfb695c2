package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"labhive/internal/common/models"

	"gopkg.in/yaml.v3"
)

// Secret file names inside Config.SecretDir. JSON files are parsed with the
// YAML decoder, which accepts both formats.
const (
	HMACKeyFile         = "hmacKey"
	MailConfigFile      = "mailConfig.json"
	DiscordBotTokenFile = "discordBotToken"
	AdminUsersFile      = "adminUsers.json"
	DBConfigFile        = "dbConfig.json"
)

// DevHMACKey signs tokens outside of production.
const DevHMACKey = "randomKey"

type MailAuth struct {
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

type MailConfig struct {
	Host   string   `yaml:"host" validate:"required"`
	Port   int      `yaml:"port" validate:"required,gt=0"`
	Secure bool     `yaml:"secure"`
	Auth   MailAuth `yaml:"auth"`
	From   string   `yaml:"from"`
}

type DBCredentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type Secrets struct {
	HMACKey         string `validate:"required"`
	Mail            *MailConfig
	DiscordBotToken string
	AdminUsers      []models.Admin
	DB              *DBCredentials
}

func loadSecrets(cfg *Config) (*Secrets, error) {
	s := &Secrets{HMACKey: DevHMACKey}
	path := func(name string) string { return filepath.Join(cfg.SecretDir, name) }

	if cfg.Production {
		key, err := readText(path(HMACKeyFile))
		if err != nil {
			return nil, fmt.Errorf("production mode is enabled, but no hmacKey exists: %w", err)
		}
		s.HMACKey = key
	}

	if cfg.EnableMail {
		var mail MailConfig
		if err := readYAML(path(MailConfigFile), &mail); err != nil {
			return nil, fmt.Errorf("mail is enabled, but no config exists (set ENABLE_MAIL=false to disable): %w", err)
		}
		s.Mail = &mail
	}

	if !cfg.DisableDiscordBot {
		token, err := readText(path(DiscordBotTokenFile))
		if err != nil {
			return nil, fmt.Errorf("discord bot is enabled, but no discord token could be found: %w", err)
		}
		s.DiscordBotToken = token
	}

	if err := readYAML(path(AdminUsersFile), &s.AdminUsers); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		log.Printf("No admin user configuration found, create one in %s", path(AdminUsersFile))
	}

	var db DBCredentials
	switch err := readYAML(path(DBConfigFile), &db); {
	case err == nil:
		s.DB = &db
	case errors.Is(err, os.ErrNotExist) && !cfg.Production:
	default:
		return nil, fmt.Errorf("no usable DB config: %w", err)
	}

	return s, nil
}

func readText(p string) (string, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func readYAML(p string, out interface{}) error {
	b, err := os.ReadFile(p)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("parse %s: %w", p, err)
	}
	return nil
}
