// Command mtsyncctl reconciles a MikroTik RouterOS-class device's REST-
// exposed configuration tree against a declarative JSON document.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/edirooss/mtsync/internal/config"
	"github.com/edirooss/mtsync/internal/deviceapi"
	"github.com/edirooss/mtsync/internal/engine"
	"github.com/edirooss/mtsync/internal/idcodec"
	"github.com/edirooss/mtsync/internal/imagined"
	"github.com/edirooss/mtsync/internal/runid"
	"github.com/edirooss/mtsync/internal/tree"
	"github.com/edirooss/mtsync/pkg/fmtt"
)

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	return zap.Must(logConfig.Build())
}

// deviceFlags mirrors config.Settings as plain values; toArgs treats an
// empty string or false as "flag not passed".
type deviceFlags struct {
	desiredFile string
	hostname    string
	username    string
	password    string
	ignoreCert  bool
}

func bindDeviceFlags(cmd *cobra.Command, f *deviceFlags) {
	cmd.Flags().StringVar(&f.desiredFile, "desired-file", "", "path to the desired-state JSON document (default: stdin)")
	cmd.Flags().StringVar(&f.hostname, "hostname", "", "device hostname or IP, overrides the hostname/HOSTNAME environment variable")
	cmd.Flags().StringVar(&f.username, "username", "", "device username, overrides the username/USERNAME environment variable")
	cmd.Flags().StringVar(&f.password, "password", "", "device password, overrides the password/PASSWORD environment variable")
	cmd.Flags().BoolVar(&f.ignoreCert, "ignore-certificate-errors", false, "skip TLS certificate verification")
}

func (f *deviceFlags) toArgs() config.Args {
	var a config.Args
	if f.hostname != "" {
		a.Hostname = &f.hostname
	}
	if f.username != "" {
		a.Username = &f.username
	}
	if f.password != "" {
		a.Password = &f.password
	}
	if f.ignoreCert {
		a.IgnoreCertificateErrors = &f.ignoreCert
	}
	return a
}

func readDesired(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open desired file: %w", err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// prepare loads the desired document and resolves connection settings,
// applying the three sources in spec order: environment, flags, metadata.
func prepare(f *deviceFlags) (root map[string]json.RawMessage, settings config.Settings, err error) {
	raw, err := readDesired(f.desiredFile)
	if err != nil {
		return nil, config.Settings{}, err
	}

	root, metadata, err := tree.Decode(raw)
	if err != nil {
		return nil, config.Settings{}, fmt.Errorf("%w: %v", engine.ErrMalformedInput, err)
	}

	var s config.Settings
	s.ApplyEnvironment()
	s.ApplyArgs(f.toArgs())
	if err := s.ApplyMetadata(metadata); err != nil {
		return nil, config.Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return nil, config.Settings{}, err
	}

	return root, s, nil
}

func newEngine(log *zap.Logger, settings config.Settings, reporter engine.Reporter) (*engine.Engine, *zap.Logger) {
	rid := runid.New()
	log = log.With(zap.String("run_id", rid))

	client := deviceapi.New(settings, rid, log)
	return engine.New(client, idcodec.New(), engine.Options{Reporter: reporter, Logger: log}), log
}

func runApply(cmd *cobra.Command, log *zap.Logger, f *deviceFlags) error {
	root, settings, err := prepare(f)
	if err != nil {
		return err
	}

	eng, log := newEngine(log, settings, &cliReporter{out: cmd.OutOrStdout()})
	if _, err := eng.Run(cmd.Context(), root); err != nil {
		return err
	}
	log.Info("reconciliation complete")
	return nil
}

func runValidate(cmd *cobra.Command, log *zap.Logger, f *deviceFlags) error {
	root, settings, err := prepare(f)
	if err != nil {
		return err
	}

	eng, _ := newEngine(log, settings, &cliReporter{out: cmd.OutOrStdout()})
	_, err = eng.Analyze(cmd.Context(), root)
	return err
}

func buildRootCmd(log *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "mtsyncctl",
		Short:         "Reconcile a RouterOS-class device against a desired JSON configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var applyFlags deviceFlags
	apply := &cobra.Command{
		Use:   "apply",
		Short: "Compute and execute the actions needed to match the desired document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, log, &applyFlags)
		},
	}
	bindDeviceFlags(apply, &applyFlags)

	var validateFlags deviceFlags
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Print the actions apply would take, without touching the device",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, log, &validateFlags)
		},
	}
	bindDeviceFlags(validate, &validateFlags)

	root.AddCommand(apply, validate)
	return root
}

func main() {
	log := buildLogger().Named("mtsyncctl")

	runErr := buildRootCmd(log).Execute()
	syncErr := log.Sync()
	err := multierr.Append(runErr, syncErr)

	if err != nil {
		fmtt.PrintErrChain(os.Stderr, err)

		var ive *imagined.InvariantViolationError
		if errors.As(err, &ive) {
			fmtt.DumpInvariantViolation(os.Stderr, ive)
		}
	}

	if runErr != nil {
		os.Exit(1)
	}
}
