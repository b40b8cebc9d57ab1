// Copyright 2026 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// mockwhale starts a WireMock container as described by a YAML file, prints
// its endpoint once it is ready, and removes the container again upon SIGINT
// or SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/thediveo/mockwhale"
	"github.com/thediveo/mockwhale/config"
)

// Environment variables supplying defaults for the corresponding flags.
const (
	ConfigEnv    = "MOCKWHALE_CONFIG"
	LogLevelEnv  = "MOCKWHALE_LOG_LEVEL"
	LogFormatEnv = "MOCKWHALE_LOG_FORMAT"
)

// extraOptions get appended to the options from the YAML description; tests
// use them to inject a mocked engine.
var extraOptions []mockwhale.Option

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "mockwhale: %s\n", err)
		os.Exit(1)
	}
}

// run starts the described WireMock container and keeps it running until ctx
// is done.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("mockwhale", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", os.Getenv(ConfigEnv),
		"YAML file describing the WireMock container")
	logLevel := flags.String("log-level", envOr(LogLevelEnv, "info"),
		"log level: trace, debug, info, warn, or error")
	logFormat := flags.String("log-format", envOr(LogFormatEnv, "console"),
		"log format: console or json")
	if err := flags.Parse(args); err != nil {
		return err
	}
	log, err := newLogger(stderr, *logLevel, *logFormat)
	if err != nil {
		return err
	}

	spec := &config.Spec{}
	if *configPath != "" {
		spec, err = config.Load(*configPath)
		if err != nil {
			return err
		}
	}
	opts := append(spec.Options(),
		mockwhale.WithLogger(log),
		mockwhale.WithLogConsumer(mockwhale.LogLines(log.With().Str("source", "wiremock").Logger())))
	wm, err := mockwhale.New(append(opts, extraOptions...)...)
	if err != nil {
		return err
	}
	if err := wm.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintln(stdout, wm.Endpoint())

	<-ctx.Done()
	log.Info().Str("container", wm.Name()).Msg("terminating WireMock container")
	tctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return wm.Terminate(tctx)
}

// newLogger returns a logger writing to w at the specified level, either in
// human-friendly console format or as JSON.
func newLogger(w io.Writer, level string, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), errors.Wrapf(err, "invalid log level %q", level)
	}
	switch format {
	case "json":
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), errors.Errorf("invalid log format %q", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

func envOr(name string, def string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return def
}
