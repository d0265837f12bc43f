// Package trace parses load/store memory traces and drives a trace-core
// front end that injects their requests into the memory system (spec.md
// §4.5 "Trace core", §6 "Trace file format").
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hanloveland/ramulator2-sub000/pkg/request"
)

// Entry is one parsed trace line.
type Entry struct {
	Timestamp uint64
	IsWrite   bool
	Addr      int64
	Payload   request.Payload
	HasPayload bool
}

func parseNumber(tok string) (int64, error) {
	if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
		v, err := strconv.ParseUint(tok[2:], 16, 64)
		return int64(v), err
	}
	return strconv.ParseInt(tok, 10, 64)
}

// Parse reads a trace file in either of the two documented formats:
//
//	TS OP ADDR [P0 P1 ... P7]
//	OP ADDR [P0 P1 ... P7]   (legacy; timestamps assigned sequentially from 0)
//
// Blank lines and lines starting with '#' are ignored.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	nextSeq := uint64(0)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) < 2 {
			return nil, fmt.Errorf("trace line %d: too few fields", lineNo)
		}

		offset := 0
		var ts uint64
		if _, err := strconv.ParseUint(tokens[0], 10, 64); err == nil && len(tokens) >= 3 {
			ts, _ = strconv.ParseUint(tokens[0], 10, 64)
			offset = 1
		} else {
			ts = nextSeq
			nextSeq++
		}

		if offset+1 >= len(tokens) {
			return nil, fmt.Errorf("trace line %d: missing address", lineNo)
		}
		op := tokens[offset]
		var isWrite bool
		switch op {
		case "LD":
			isWrite = false
		case "ST":
			isWrite = true
		default:
			return nil, fmt.Errorf("trace line %d: unknown op %q", lineNo, op)
		}

		addr, err := parseNumber(tokens[offset+1])
		if err != nil {
			return nil, fmt.Errorf("trace line %d: bad address: %w", lineNo, err)
		}

		e := Entry{Timestamp: ts, IsWrite: isWrite, Addr: addr}
		if isWrite {
			payloadTokens := tokens[offset+2:]
			if len(payloadTokens) != 0 {
				if len(payloadTokens) != request.PayloadWords {
					return nil, fmt.Errorf("trace line %d: ST payload must have exactly %d words, got %d", lineNo, request.PayloadWords, len(payloadTokens))
				}
				for i, tok := range payloadTokens {
					v, err := parseNumber(tok)
					if err != nil {
						return nil, fmt.Errorf("trace line %d: bad payload word: %w", lineNo, err)
					}
					e.Payload[i] = uint64(v)
				}
				e.HasPayload = true
			}
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
