// SPDX-License-Identifier: MIT
package repomirror

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skaphos/repomirror/internal/config"
	"github.com/skaphos/repomirror/internal/fetch"
	"github.com/skaphos/repomirror/internal/mirror"
	"github.com/skaphos/repomirror/internal/registry"
	"github.com/skaphos/repomirror/internal/sink"
)

// session is the loaded configuration and repository store for a command.
type session struct {
	cfgPath string
	cfg     *config.Config
	store   *registry.FileStore
}

func loadSession() (*session, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfgPath, err := config.ResolveConfigPath(configOverride(), cwd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config not found at %s (run repomirror init first)", cfgPath)
		}
		return nil, err
	}
	store, err := registry.Open(config.ResolveRegistryPath(cfgPath, cfg))
	if err != nil {
		return nil, err
	}
	return &session{cfgPath: cfgPath, cfg: cfg, store: store}, nil
}

func (s *session) newSink() (sink.Sink, error) {
	switch s.cfg.Sink.Kind {
	case config.SinkS3:
		s3 := s.cfg.Sink.S3
		out, err := sink.NewS3Sink(sink.S3Config{
			Endpoint:  s3.Endpoint,
			Region:    s3.Region,
			Bucket:    s3.Bucket,
			Prefix:    s3.Prefix,
			UseSSL:    s3.UseSSL,
			AccessKey: strings.TrimSpace(os.Getenv(config.EnvS3AccessKey)),
			SecretKey: strings.TrimSpace(os.Getenv(config.EnvS3SecretKey)),
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	default:
		out, err := sink.NewLocalSink(config.ResolveMirrorRoot(s.cfgPath, s.cfg))
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

func (s *session) newFetcher() fetch.Fetcher {
	return fetch.NewClient(fetch.Options{
		Timeout:   s.cfg.Defaults.Timeout(),
		UserAgent: s.cfg.Defaults.UserAgent,
	})
}

func (s *session) newEngine(cmd *cobra.Command) (*mirror.Engine, error) {
	out, err := s.newSink()
	if err != nil {
		return nil, err
	}
	return mirror.New(s.cfg, s.store, s.newFetcher(), out, newLogger(cmd.ErrOrStderr())), nil
}
