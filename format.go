package logsink

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

const (
	consoleTimeFormat = "15:04:05.000"
	fileTimeFormat    = "2006-01-02 15:04:05.000"
)

var partsOrder = []string{
	zerolog.TimestampFieldName,
	zerolog.LevelFieldName,
	ModuleFieldName,
	zerolog.MessageFieldName,
}

// consoleFormatter renders records for a human at a terminal. Colour is used
// only when out is a TTY. Writes to out are serialised.
func consoleFormatter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:           zerolog.SyncWriter(out),
		NoColor:       !isTerminal(out),
		TimeFormat:    consoleTimeFormat,
		PartsOrder:    partsOrder,
		FieldsExclude: []string{ModuleFieldName},
	}
}

// fileFormatter renders records as plain text lines for the log file.
func fileFormatter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:           out,
		NoColor:       true,
		TimeFormat:    fileTimeFormat,
		PartsOrder:    partsOrder,
		FieldsExclude: []string{ModuleFieldName},
		FormatLevel: func(i interface{}) string {
			s, _ := i.(string)
			return fmt.Sprintf("[%-5s]", strings.ToUpper(s))
		},
		FormatFieldValue: func(i interface{}) string {
			if s, ok := i.(string); ok {
				return s
			}
			return fmt.Sprint(i)
		},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
