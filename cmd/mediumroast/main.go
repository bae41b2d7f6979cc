package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/mediumroast/mediumroast-go/token"
	"github.com/rs/zerolog/log"
)

// Exit codes for CLI commands
const (
	ExitCodeSuccess    = 0
	ExitCodeError      = 1
	ExitCodeConfig     = 2
	ExitCodeAuthFailed = 3
)

func main() {
	os.Exit(run())
}

func run() (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			exitCode = ExitCodeError
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		return exitCodeFor(err)
	}
	return ExitCodeSuccess
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, token.ErrConfig):
		return ExitCodeConfig
	case errors.Is(err, token.ErrAuth), errors.Is(err, token.ErrFile), errors.Is(err, token.ErrSigning):
		return ExitCodeAuthFailed
	default:
		return ExitCodeError
	}
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, myFigure.String())
}
