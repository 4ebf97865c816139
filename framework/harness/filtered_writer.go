package harness

import (
	"bufio"
	"bytes"
	"regexp"

	"github.com/sfgbrewery/beer-contract-tests/framework"
)

// filteredWriter is an io.Writer that sends each line written to it to a Logger, except for
// lines matching any of the exclude patterns.
type filteredWriter struct {
	logger       framework.Logger
	prefix       string
	excludeRegex []*regexp.Regexp
}

func newFilteredWriter(logger framework.Logger, prefix string, excludeRegex []*regexp.Regexp) *filteredWriter {
	return &filteredWriter{logger: logger, prefix: prefix, excludeRegex: excludeRegex}
}

func (f *filteredWriter) Write(data []byte) (int, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 4096), len(data)+1)
LineLoop:
	for scanner.Scan() {
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}
		for _, r := range f.excludeRegex {
			if r.Match(line) {
				continue LineLoop
			}
		}
		f.logger.Printf("%s%s", f.prefix, line)
	}
	return len(data), scanner.Err()
}
