package logsink

import (
	"os"
	"strings"

	smerrors "github.com/Station-Manager/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ParseLevel parses a level name into a zerolog.Level. Besides the names
// zerolog knows it accepts "off"/"none" (Disabled) and "warning".
// An empty string is an error rather than zerolog.NoLevel.
func ParseLevel(level string) (zerolog.Level, error) {
	switch s := strings.ToLower(strings.TrimSpace(level)); s {
	case emptyString:
		return zerolog.NoLevel, errors.New("empty log level")
	case "off", "none":
		return zerolog.Disabled, nil
	case "warning":
		return zerolog.WarnLevel, nil
	default:
		l, err := zerolog.ParseLevel(s)
		if err != nil {
			return zerolog.NoLevel, errors.Wrapf(err, "parse log level %q", level)
		}
		return l, nil
	}
}

// envLevel looks up the override variable. A missing or malformed value is
// reported as no override; the malformed case is deliberately not an error.
func envLevel(name string) (zerolog.Level, bool) {
	if name == emptyString {
		return zerolog.NoLevel, false
	}
	v, ok := os.LookupEnv(name)
	if !ok {
		return zerolog.NoLevel, false
	}
	l, err := ParseLevel(v)
	if err != nil {
		return zerolog.NoLevel, false
	}
	return l, true
}

// buildErrorChain walks an error's cause chain and returns:
//   - chain: outermost -> innermost error messages
//   - ops: operation identifiers for DetailedError links ("" if not available)
//   - root: the innermost error message
//   - rootOp: the innermost operation identifier if available
//
// DetailedError links are followed through Cause(). Anything else is
// unwrapped with errors.Unwrap; pkg/errors wrappers repeat their message on
// the stack layer, so repeated messages are recorded once. Kind tags are
// skipped.
func buildErrorChain(err error) (chain []string, ops []string, root string, rootOp string) {
	const maxDepth = 50
	visited := 0
	seen := map[string]bool{}

	for err != nil && visited < maxDepth {
		visited++

		if dErr, ok := err.(*smerrors.DetailedError); ok && dErr != nil {
			msg := dErr.Error()
			seen[msg] = true
			chain = append(chain, msg)
			ops = append(ops, string(dErr.Op()))
			err = dErr.Cause()
			continue
		}
		if k, ok := err.(*kindError); ok {
			err = k.err
			continue
		}

		msg := err.Error()
		if !seen[msg] {
			seen[msg] = true
			chain = append(chain, msg)
			ops = append(ops, emptyString)
		}
		err = errors.Unwrap(err)
	}

	if len(chain) > 0 {
		root = chain[len(chain)-1]
	}
	for i := len(ops) - 1; i >= 0; i-- {
		if ops[i] != emptyString {
			rootOp = ops[i]
			break
		}
	}
	return
}

// joinChain returns a single string for the error chain separated by " -> ".
func joinChain(chain []string) string {
	if len(chain) == 0 {
		return emptyString
	}
	return strings.Join(chain, " -> ")
}
