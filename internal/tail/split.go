package tail

import "bytes"

// SplitLines breaks a chunk read from a file into logical lines.
// Lines end at '\n'; a trailing '\r' is dropped and empty lines are
// skipped. Content after the last terminator is returned as a final line.
func SplitLines(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}

	// Estimate initial capacity (assume ~100 bytes per line)
	lines := make([]string, 0, len(chunk)/100+1)
	offset := 0
	for offset < len(chunk) {
		idx := bytes.IndexByte(chunk[offset:], '\n')
		var line []byte
		if idx == -1 {
			line = chunk[offset:]
			offset = len(chunk)
		} else {
			line = chunk[offset : offset+idx]
			offset += idx + 1
		}

		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 {
			continue
		}
		lines = append(lines, string(line))
	}
	return lines
}
