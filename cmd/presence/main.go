// presence checks the attendance state once and optionally toggles it.
//
//	presence [flags] [status|card|toggle]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"presence.monitor/internal/adapters/kiosk"
	"presence.monitor/internal/config"
	"presence.monitor/internal/core"
	"presence.monitor/internal/core/model"
	"presence.monitor/internal/ports"
	"presence.monitor/pkg/logger"
)

var errUsage = errors.New("usage error")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer) error {
	var configFile string
	var assumeYes, verbose, jsonOutput bool

	flagSet := pflag.NewFlagSet("presence", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringVar(&configFile, "config", "", "configuration file (overrides CONFIG_FILE)")
	flagSet.BoolVarP(&assumeYes, "yes", "y", false, "check out without asking for confirmation")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log requests to stderr")
	flagSet.BoolVar(&jsonOutput, "json", false, "print results as JSON")
	flagSet.Usage = func() {
		fmt.Fprintf(out, "Usage: presence [flags] [status|card|toggle]\n\nFlags:\n%s", flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	command := "status"
	switch rest := flagSet.Args(); len(rest) {
	case 0:
	case 1:
		command = rest[0]
	default:
		flagSet.Usage()
		return errUsage
	}
	if command != "status" && command != "card" && command != "toggle" {
		flagSet.Usage()
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	_ = godotenv.Load()
	logger.SetupCLI(verbose)

	cfg, err := config.Load(viper.New(), configFile)
	if err != nil {
		return err
	}
	settings := cfg.Settings()
	// One-shot: the initial query is the only poll.
	settings.PollInterval = 0

	monitor := core.NewMonitor(kiosk.NewHTTPClient(cfg.HTTPTimeout), core.Options{
		Notifier: printNotifier{out: out},
	})
	defer monitor.Shutdown()

	if err := monitor.Configure(settings); err != nil {
		return err
	}

	ctx := context.Background()
	switch command {
	case "card":
		return printResult(out, jsonOutput, monitor.Card(), formatCard)
	case "toggle":
		var confirmer ports.Confirmer = newTerminalConfirmer(in, out)
		if assumeYes {
			confirmer = ports.ConfirmFunc(func(context.Context, string) bool { return true })
		}
		outcome, err := monitor.PrimaryAction(ctx, confirmer)
		if errors.Is(err, core.ErrNotSynced) && monitor.LastError() != nil {
			return fmt.Errorf("%w: %w", err, monitor.LastError())
		}
		if err != nil {
			return err
		}
		if outcome == core.OutcomeCancelled {
			fmt.Fprintln(out, "Check-out cancelled.")
			return nil
		}
	}

	if err := monitor.LastError(); err != nil {
		return err
	}
	return printResult(out, jsonOutput, monitor.Display(), formatDisplay)
}

func printResult[T any](out io.Writer, asJSON bool, value T, format func(T) string) error {
	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	}
	_, err := fmt.Fprintln(out, format(value))
	return err
}

func formatDisplay(state model.DisplayState) string {
	return fmt.Sprintf("%s\t%s\t%s", state.EmployeeName, state.Status, state.Elapsed)
}

func formatCard(card model.Card) string {
	return fmt.Sprintf("%s\n%s\n%s", card.EmployeeName, card.Timer, card.LastAction)
}
