package main

import (
	"context"
	"errors"
	"os"

	"github.com/adam-huganir/zbx-template-import/pkg/logging"
	"github.com/adam-huganir/zbx-template-import/pkg/types"
	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	logger = logging.InitLogger("")
	logger.Trace().Msg("zbx-template-import.init() called")
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:]))
}

// execute runs the root command and maps its error to an exit code.
func execute(ctx context.Context, args []string) int {
	settings := types.NewArguments()
	rootCommand := newRootCommand(settings, &logger)
	initRoot(rootCommand, settings)
	rootCommand.SetArgs(args)

	logger.Trace().Msg("executing rootCommand")
	err := rootCommand.ExecuteContext(ctx)
	if err == nil {
		return types.ExitCodeOK
	}
	logger.Error().Msg(err.Error())

	var exitErr *types.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	// anything not raised by the app itself comes from cobra's flag and argument checks
	return types.ExitCodeUsage
}
