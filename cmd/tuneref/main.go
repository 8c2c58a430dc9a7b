/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// tuneref inspects tuning references and the tuning registry.
//
// Usage:
//
//	tuneref [--config FILE] [--registry FILE] [--log-level LEVEL] <command> [flags] [args]
//
// Commands:
//
//	resolve REF                      print the tuning REF resolves to
//	encode [--format wire|cbor] REF  print the hex encoding of REF
//	decode [--format wire|cbor] HEX  print the reference encoded in HEX
//	list                             print the registry entries
//
// REF is a tree node written as YAML: a bare id ("bohlen-pierce"), a
// legacy step number ("1.5") or a compound ("{type: equal, step: 1.5}").
//
// The config file comes from --config or $TUNEREF_CONFIG. Without a
// registry file no registry is loaded and every id resolves to just
// intonation.
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"dirpx.dev/tuneref"
	"dirpx.dev/tuneref/config"
	"dirpx.dev/tuneref/internal/logging"
	"dirpx.dev/tuneref/ref"
)

const (
	formatWire = "wire"
	formatCBOR = "cbor"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var configPath, registryPath, logLevel string

	flagSet := pflag.NewFlagSet("tuneref", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&configPath, "config", "", "config file (default $"+config.EnvConfigPath+")")
	flagSet.StringVar(&registryPath, "registry", "", "registry file, YAML or JSONC (overrides the config file)")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default warn)")
	flagSet.Usage = func() { printUsage(flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	file, err := config.Load(configPath)
	switch {
	case errors.Is(err, config.ErrNoConfigPath):
		file = &config.File{}
	case err != nil:
		return err
	}
	if registryPath == "" {
		registryPath = file.Registry
	}
	if logLevel == "" {
		logLevel = file.LogLevel
	}
	if logLevel == "" {
		logLevel = "warn"
	}

	logger, err := logging.NewZapLogger(logLevel)
	if err != nil {
		return err
	}
	tuneref.SetLogger(logger)

	tuneref.SetConfig(file.Config())
	tuneref.Close()
	if registryPath != "" {
		if err := tuneref.LoadRegistry(registryPath); err != nil {
			return err
		}
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(flagSet)
		return fmt.Errorf("command required")
	}

	switch rest[0] {
	case "resolve":
		return runResolve(rest[1:], stdout)
	case "encode":
		return runEncode(rest[1:], stdout)
	case "decode":
		return runDecode(rest[1:], stdout)
	case "list":
		return runList(rest[1:], stdout)
	case "help":
		printUsage(flagSet)
		return nil
	default:
		printUsage(flagSet)
		return fmt.Errorf("unknown command: %q", rest[0])
	}
}

func printUsage(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Usage: tuneref [flags] <command> [args]

Commands:
  resolve REF                      print the tuning REF resolves to
  encode [--format wire|cbor] REF  print the hex encoding of REF
  decode [--format wire|cbor] HEX  print the reference encoded in HEX
  list                             print the registry entries

REF is YAML: an id, a step number, or {type: ..., ...}.

Flags:
`)
	flagSet.PrintDefaults()
}

func runResolve(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("resolve: want exactly one REF argument")
	}
	r, err := parseRef(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, tuneref.Resolve(r))
	return nil
}

func runEncode(args []string, stdout io.Writer) error {
	format, args, err := parseFormat("encode", args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("encode: want exactly one REF argument")
	}
	r, err := parseRef(args[0])
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case formatCBOR:
		data, err = ref.MarshalTree(r)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	default:
		b := tuneref.NewWireBuffer(nil)
		if err := ref.EncodeWire(b, r); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		data = b.Bytes()
	}
	fmt.Fprintln(stdout, hex.EncodeToString(data))
	return nil
}

func runDecode(args []string, stdout io.Writer) error {
	format, args, err := parseFormat("decode", args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("decode: want exactly one HEX argument")
	}
	data, err := hex.DecodeString(strings.TrimSpace(args[0]))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	var r ref.Ref
	switch format {
	case formatCBOR:
		r, err = ref.UnmarshalTree(data)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
	default:
		b := tuneref.NewWireBuffer(data)
		r, err = ref.DecodeWire(b)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		if b.Len() != 0 {
			return fmt.Errorf("decode: %d trailing bytes", b.Len())
		}
	}
	fmt.Fprintln(stdout, r)
	return nil
}

func runList(args []string, stdout io.Writer) error {
	if len(args) != 0 {
		return fmt.Errorf("list: unexpected argument: %s", args[0])
	}
	reg, ok := tuneref.Current()
	if !ok {
		return fmt.Errorf("list: %w", tuneref.ErrNoRegistry)
	}
	for _, e := range reg.Entries() {
		fmt.Fprintf(stdout, "%s\t%s\n", e.ID, e.Tuning)
	}
	return nil
}

// parseFormat handles the --format flag shared by encode and decode.
func parseFormat(command string, args []string) (string, []string, error) {
	var format string
	flagSet := pflag.NewFlagSet(command, pflag.ContinueOnError)
	flagSet.StringVar(&format, "format", formatWire, "encoding: wire or cbor")
	if err := flagSet.Parse(args); err != nil {
		return "", nil, err
	}
	switch format {
	case formatWire, formatCBOR:
		return format, flagSet.Args(), nil
	default:
		return "", nil, fmt.Errorf("%s: unknown format %q", command, format)
	}
}

// parseRef reads a YAML tree node and decodes it as a reference.
func parseRef(text string) (ref.Ref, error) {
	var node any
	if err := yaml.Unmarshal([]byte(text), &node); err != nil {
		return ref.Ref{}, fmt.Errorf("parse REF %q: %w", text, err)
	}
	return ref.FromTree(node), nil
}
