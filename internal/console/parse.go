package console

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/biferdou/grallix/internal/command"
)

// tokenize splits line on whitespace. Double or single quotes group
// words, and a backslash escapes the next character.
func tokenize(line string) ([]string, error) {
	var (
		tokens  []string
		cur     strings.Builder
		inToken bool
		quote   rune
		escaped bool
	)

	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
			inToken = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case unicode.IsSpace(r):
			if inToken {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, fmt.Errorf("trailing backslash")
	}
	if inToken {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}

// parseLine turns a console line into a command request. Options are
// given as name=value or positionally in their declared order, e.g.
//
//	task add "Write report" 2025-01-10
//	setup standups=true weekly=false
func parseLine(line string) (command.Request, error) {
	tokens, err := tokenize(line)
	if err != nil {
		return command.Request{}, err
	}
	if len(tokens) == 0 {
		return command.Request{}, fmt.Errorf("empty command")
	}
	tokens[0] = strings.TrimPrefix(tokens[0], "/")

	req := command.Request{Command: tokens[0], Options: map[string]string{}}
	args := tokens[1:]

	def, ok := command.Lookup(req.Command, "")
	if !ok {
		if len(args) == 0 {
			return command.Request{}, fmt.Errorf("unknown command %q", req.Command)
		}
		req.Subcommand = args[0]
		args = args[1:]
		def, ok = command.Lookup(req.Command, req.Subcommand)
		if !ok {
			return command.Request{}, fmt.Errorf("unknown command %q", req.Command+" "+req.Subcommand)
		}
	}

	known := map[string]bool{}
	for _, o := range def.Options {
		known[o.Name] = true
	}

	pos := 0
	for _, arg := range args {
		if name, value, found := strings.Cut(arg, "="); found && known[name] {
			req.Options[name] = value
			continue
		}
		for pos < len(def.Options) && req.Options[def.Options[pos].Name] != "" {
			pos++
		}
		if pos >= len(def.Options) {
			return command.Request{}, fmt.Errorf("too many arguments for %q", strings.TrimSpace(req.Command+" "+req.Subcommand))
		}
		req.Options[def.Options[pos].Name] = arg
		pos++
	}
	return req, nil
}
