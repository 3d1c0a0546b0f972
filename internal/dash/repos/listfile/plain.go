package listfile

import (
	"bufio"
	"io"
	"strings"

	"github.com/haukened/rr-dash/internal/dash/common/log"
	"github.com/haukened/rr-dash/internal/dash/common/utils"
)

// ParsePlain parses a newline-delimited list of domains.
//
// Behavior:
// - Supports comments starting with '#' (inline or whole-line)
// - Strips wildcard markers ("*." or "."); the allow list has no suffix rules
// - Lowercases and removes trailing dots
// - Skips tokens that are not fully qualified domains
// - De-duplicates while preserving first-seen order
func ParsePlain(r io.Reader, logger log.Logger) ([]string, error) {
	scanner := bufio.NewScanner(r)
	seen := make(map[string]struct{})
	out := make([]string, 0, 64)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripLineBOM(scanner.Text())
		if isEmpty, isComment := classifyLine(line); isEmpty || isComment {
			continue
		}

		raw := strings.TrimSpace(stripInlineComment(line))
		name := utils.StripWildcard(raw)
		if !utils.IsValidFQDN(name) {
			logger.Debug(map[string]any{"line": lineNum, "raw": raw}, "skip_invalid_fqdn")
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	logger.Debug(map[string]any{"count": len(out)}, "parse_plain_list_done")
	return out, nil
}
