package resolve

import (
	"bufio"
	"context"
	"iter"
	"log/slog"
	"os"

	"github.com/kush-sh/kush/internal/target"
)

// FileResolver reads targets from lines in a file, one query per
// line. Blank lines are skipped; lines that fail to parse as a target
// are logged and skipped rather than aborting the file.
type FileResolver struct{}

// NewFileResolver returns a FileResolver.
func NewFileResolver() *FileResolver {
	return &FileResolver{}
}

// ResolveFallible implements Resolve.
func (f *FileResolver) ResolveFallible(_ context.Context, t *target.Target) iter.Seq2[*target.Target, error] {
	return func(yield func(*target.Target, error) bool) {
		path, ok := t.Path()
		if !ok {
			return
		}

		file, err := os.Open(path)
		if err != nil {
			yield(nil, err)
			return
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			parsed, err := target.Parse(line)
			if err != nil {
				slog.Debug("FileResolver: error parsing line", "error", err, "line", line)
				continue
			}
			if !yield(parsed, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(nil, err)
		}
	}
}
