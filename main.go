package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/psi"
	"pkt.systems/pslog"

	"github.com/javanhut/svte/selfcheck"
	"github.com/javanhut/svte/theme"
	"github.com/javanhut/svte/version"
	"github.com/javanhut/svte/window"
)

const engineModule = "github.com/danielgatis/go-headless-term"

var errSelfCheckFailed = errors.New("self-check failed")

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)

	root := newRootCmd()
	root.SetArgs(os.Args[1:])

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errSelfCheckFailed) {
			pslog.Ctx(ctx).With("err", err).Error("svte failed")
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		selfTest  bool
		themeName string
	)
	root := &cobra.Command{
		Use:           "svte",
		Short:         "A minimal tabbed terminal emulator",
		Version:       version.Current(),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if selfTest {
				return runSelfCheck(cmd)
			}
			return run(cmd.Context(), themeName)
		},
	}
	root.Flags().BoolVar(&selfTest, "test", false, "run the self-check and exit")
	root.Flags().StringVar(&themeName, "theme", "", themeFlagUsage())
	return root
}

func themeFlagUsage() string {
	opts := theme.Options()
	names := make([]string, 0, len(opts))
	for _, opt := range opts {
		names = append(names, fmt.Sprintf("%s (%s)", opt.Name, opt.Label))
	}
	return "color scheme to use instead of the configured one: " + strings.Join(names, ", ")
}

func runSelfCheck(cmd *cobra.Command) error {
	report := selfcheck.Run(cmd.OutOrStdout(), selfcheck.Options{
		ToolkitVersion: window.ToolkitVersion,
		EngineVersion:  engineVersion,
		Logger:         pslog.Ctx(cmd.Context()),
	})
	if report.ExitCode() != 0 {
		return errSelfCheckFailed
	}
	return nil
}

func engineVersion() (string, error) {
	v, ok := version.Dependency(engineModule)
	if !ok {
		return "", fmt.Errorf("%s not found in build info", engineModule)
	}
	return v, nil
}
