package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/morikuni/failure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func formatFrame(frame failure.Frame) string {
	return frame.Pkg() + "." + frame.Func() + ":" + strconv.Itoa(frame.Line())
}

func errorStackMarshaller(err error) interface{} {
	if cs, ok := failure.CallStackOf(err); ok {
		frames := cs.Frames()
		res := make([]string, 0, len(frames))
		for _, frame := range frames {
			res = append(res, formatFrame(frame))
		}
		return res
	}
	return err
}

// SetUpLogger configures the global zerolog logger. format is one of auto,
// human or json; auto picks the console writer on a terminal.
func SetUpLogger(logLevel string, logFormat string) error {
	var useConsoleWriter bool
	switch logFormat {
	case "auto":
		useConsoleWriter = isatty.IsTerminal(os.Stdout.Fd())
	case "human":
		useConsoleWriter = true
	case "json":
		useConsoleWriter = false
	default:
		return fmt.Errorf("invalid log format: %s, expected: [auto, json, human]", logFormat)
	}

	var writer io.Writer = os.Stdout
	if useConsoleWriter {
		writer = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			if !isatty.IsTerminal(os.Stdout.Fd()) {
				w.NoColor = true
			}
		})
	}
	level, err := zerolog.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
	zerolog.ErrorStackMarshaler = errorStackMarshaller
	return nil
}
