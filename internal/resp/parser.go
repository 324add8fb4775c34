package resp

import (
	"strconv"
	"strings"
)

// Limits bounds the codec's backpressure: the maximum size of a single
// bulk-string payload and the maximum element count of a single array,
// per the suggested caps in the concurrency & resource model.
type Limits struct {
	MaxBulkBytes int
	MaxArrayLen  int
}

// DefaultLimits matches the spec's suggested defaults.
var DefaultLimits = Limits{
	MaxBulkBytes: 512 * 1024,
	MaxArrayLen:  1_000_000,
}

// Parse attempts to read exactly one RESP value from the front of buf.
//
// On success it returns the value and the number of bytes consumed.
// On insufficient data it returns ErrIncomplete and consumes nothing;
// callers must retry the same call (possibly re-scanning a validated
// prefix) once more bytes have been appended to buf. On malformed
// bytes it returns a *FramingError.
func Parse(buf []byte, limits Limits) (Value, int, error) {
	if len(buf) == 0 {
		return Value{}, 0, ErrIncomplete
	}

	switch buf[0] {
	case prefixSimpleString:
		return parseSimpleString(buf)
	case prefixError:
		return parseErrorLine(buf)
	case prefixInteger:
		return parseInteger(buf)
	case prefixBulkString:
		return parseBulkString(buf, limits)
	case prefixArray:
		return parseArray(buf, limits)
	default:
		return parseInlineCommand(buf)
	}
}

// readLine finds the first CRLF in buf and returns the line content
// (without the terminator) and the total byte count including it.
// readLine never mutates buf; it only computes offsets.
func readLine(buf []byte) (line []byte, total int, ok bool) {
	idx := indexCRLF(buf)
	if idx < 0 {
		return nil, 0, false
	}
	return buf[:idx], idx + 2, true
}

func indexCRLF(buf []byte) int {
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == '\r' && buf[i+1] == '\n' {
			return i
		}
	}
	return -1
}

func parseSimpleString(buf []byte) (Value, int, error) {
	line, total, ok := readLine(buf)
	if !ok {
		return Value{}, 0, ErrIncomplete
	}
	return Simple(string(line[1:])), total, nil
}

func parseErrorLine(buf []byte) (Value, int, error) {
	line, total, ok := readLine(buf)
	if !ok {
		return Value{}, 0, ErrIncomplete
	}
	return Err(string(line[1:])), total, nil
}

func parseInteger(buf []byte) (Value, int, error) {
	line, total, ok := readLine(buf)
	if !ok {
		return Value{}, 0, ErrIncomplete
	}
	n, err := strconv.ParseInt(string(line[1:]), 10, 64)
	if err != nil {
		return Value{}, 0, framingErrorf("invalid integer %q", line[1:])
	}
	return Int64(n), total, nil
}

func parseBulkString(buf []byte, limits Limits) (Value, int, error) {
	line, headerLen, ok := readLine(buf)
	if !ok {
		return Value{}, 0, ErrIncomplete
	}

	n, err := strconv.ParseInt(string(line[1:]), 10, 64)
	if err != nil {
		return Value{}, 0, framingErrorf("invalid bulk length %q", line[1:])
	}
	if n == -1 {
		return Null, headerLen, nil
	}
	if n < -1 {
		return Value{}, 0, framingErrorf("negative bulk length %d", n)
	}
	if limits.MaxBulkBytes > 0 && n > int64(limits.MaxBulkBytes) {
		return Value{}, 0, framingErrorf("bulk length %d exceeds limit %d", n, limits.MaxBulkBytes)
	}

	need := headerLen + int(n) + 2
	if len(buf) < need {
		return Value{}, 0, ErrIncomplete
	}
	payload := buf[headerLen : headerLen+int(n)]
	if buf[headerLen+int(n)] != '\r' || buf[headerLen+int(n)+1] != '\n' {
		return Value{}, 0, framingErrorf("bulk string missing trailing CRLF")
	}

	data := make([]byte, n)
	copy(data, payload)
	return BulkBytes(data), need, nil
}

func parseArray(buf []byte, limits Limits) (Value, int, error) {
	line, headerLen, ok := readLine(buf)
	if !ok {
		return Value{}, 0, ErrIncomplete
	}

	n, err := strconv.ParseInt(string(line[1:]), 10, 64)
	if err != nil {
		return Value{}, 0, framingErrorf("invalid array length %q", line[1:])
	}
	if n == -1 {
		return Null, headerLen, nil
	}
	if n < -1 {
		return Value{}, 0, framingErrorf("negative array length %d", n)
	}
	if limits.MaxArrayLen > 0 && n > int64(limits.MaxArrayLen) {
		return Value{}, 0, framingErrorf("array length %d exceeds limit %d", n, limits.MaxArrayLen)
	}

	items := make([]Value, 0, n)
	offset := headerLen
	for i := int64(0); i < n; i++ {
		item, consumed, err := Parse(buf[offset:], limits)
		if err != nil {
			// Propagate ErrIncomplete/FramingError as-is: on
			// ErrIncomplete, no bytes anywhere in buf are
			// considered consumed by this attempt, so the next
			// call simply re-scans from the start (the allowed
			// re-scan of already-validated prefixes).
			return Value{}, 0, err
		}
		items = append(items, item)
		offset += consumed
	}

	return Value{Kind: KindArray, Array: items}, offset, nil
}

// parseInlineCommand implements the inline-command tolerance: a line
// not starting with one of the five type prefixes is whitespace-split
// and reported as an Array of BulkStrings, the same shape a RESP
// client would have sent for an equivalent command array.
func parseInlineCommand(buf []byte) (Value, int, error) {
	line, total, ok := readLineLoose(buf)
	if !ok {
		return Value{}, 0, ErrIncomplete
	}

	fields := strings.Fields(string(line))
	items := make([]Value, 0, len(fields))
	for _, f := range fields {
		items = append(items, BulkStr(f))
	}
	return Value{Kind: KindArray, Array: items}, total, nil
}

// readLineLoose accepts either CRLF- or bare-LF-terminated lines, for
// inline commands typed at an interactive terminal.
func readLineLoose(buf []byte) (line []byte, total int, ok bool) {
	for i, b := range buf {
		if b == '\n' {
			end := i
			if end > 0 && buf[end-1] == '\r' {
				end--
			}
			return buf[:end], i + 1, true
		}
	}
	return nil, 0, false
}
