package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// readTargets expands the raw -T/--targets values into a final list
// of target query strings, reading newline-delimited queries from
// stdin wherever a literal "-" entry appears.
func readTargets(stdin io.Reader, raw []string) ([]string, error) {
	var out []string
	for _, q := range raw {
		if q != "-" {
			out = append(out, q)
			continue
		}
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			out = append(out, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading targets from stdin: %w", err)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no targets given: pass -T/--targets at least once")
	}
	return out, nil
}
