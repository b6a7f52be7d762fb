// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/stonedpebbles/spark/cmd/spark/cli"
	libconversation "github.com/stonedpebbles/spark/conversation"
	"github.com/stonedpebbles/spark/lib/catalog"
	"github.com/stonedpebbles/spark/lib/config"
	"github.com/stonedpebbles/spark/lib/identity"
	"github.com/stonedpebbles/spark/lib/kms"
	"github.com/stonedpebbles/spark/lib/request"
	"github.com/stonedpebbles/spark/lib/secret"
)

// Connection carries the flags every conversation command shares.
type Connection struct {
	ConfigPath string
	Verbose    bool
}

// AddFlags registers --config and --verbose.
func (c *Connection) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.ConfigPath, "config", "",
		"client config file (default: $"+config.EnvironmentVariable+")")
	flagSet.BoolVarP(&c.Verbose, "verbose", "v", false, "log at debug level")
}

// session is a connected conversation client and the resources it
// holds.
type session struct {
	client  *libconversation.Client
	logger  *slog.Logger
	config  *config.Config
	closers []func() error
}

func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// connect loads and validates the configuration and builds a
// conversation client from it. The caller closes the session.
func (c *Connection) connect(command string) (*session, error) {
	var cfg *config.Config
	var err error
	if c.ConfigPath != "" {
		cfg, err = config.LoadFile(c.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	level, _ := cfg.LogLevel()
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := cli.NewCommandLogger(level).With("command", "conversation/"+command)
	return newSession(cfg, logger)
}

func newSession(cfg *config.Config, logger *slog.Logger) (*session, error) {
	s := &session{logger: logger, config: cfg}

	httpClient := &http.Client{Timeout: cfg.Request.Timeout}
	services := catalog.New(catalog.Config{
		Static:       cfg.Services,
		DiscoveryURL: cfg.Discovery.URL,
		CacheSize:    cfg.Discovery.CacheSize,
		CacheTTL:     cfg.Discovery.CacheTTL,
		HTTPClient:   httpClient,
		Logger:       logger,
	})

	token, err := readToken(cfg.Request.TokenFile)
	if err != nil {
		return nil, err
	}
	if token != nil {
		s.closers = append(s.closers, token.Close)
	} else {
		logger.Debug("no access token; sending unauthenticated requests", "token_file", cfg.Request.TokenFile)
	}

	requester := request.NewClient(request.ClientConfig{
		Services:   services,
		HTTPClient: httpClient,
		Token:      token,
		Logger:     logger,
	})
	identities, err := identity.New(identity.Config{Requester: requester, Logger: logger})
	if err != nil {
		s.Close()
		return nil, err
	}
	keys, err := kms.New(kms.Config{Domain: cfg.KMS.Domain, Logger: logger})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.closers = append(s.closers, keys.Close)

	s.client, err = libconversation.NewClient(libconversation.ClientConfig{
		Requester:  requester,
		Services:   services,
		Identities: identities,
		Identity: libconversation.Identity{
			UserID:    cfg.Identity.UserID,
			DeviceURL: cfg.Identity.DeviceURL,
		},
		KMS:    keys,
		Logger: logger,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// readToken reads the bearer token file. A missing or unset file means
// no token.
func readToken(path string) (*secret.Buffer, error) {
	if path == "" {
		return nil, nil
	}
	token, err := secret.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading access token: %w", err)
	}
	return token, nil
}

// parseRef turns a command-line conversation argument into a
// reference: a URL when it looks like one, an id otherwise.
func parseRef(argument string) (*libconversation.Object, error) {
	argument = strings.TrimSpace(argument)
	if argument == "" {
		return nil, errors.New("conversation reference is empty")
	}
	if strings.HasPrefix(argument, "http://") || strings.HasPrefix(argument, "https://") {
		return &libconversation.Object{URL: argument, ObjectType: libconversation.ObjectTypeConversation}, nil
	}
	return &libconversation.Object{ID: argument, ObjectType: libconversation.ObjectTypeConversation}, nil
}

// withSession connects, runs fn and closes the session.
func (c *Connection) withSession(command string, fn func(*session) error) error {
	s, err := c.connect(command)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// callContext bounds a command's work by the configured request
// timeout per call, with headroom for the multi-request operations.
func callContext(parent context.Context, s *session) (context.Context, context.CancelFunc) {
	if s.config.Request.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, 4*s.config.Request.Timeout)
}
