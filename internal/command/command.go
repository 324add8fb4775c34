/*
Package command implements the tagged-variant command model: decoding
a parsed resp.Value array into a validated Command, with per-verb
arity checking.
*/
package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/lineframe/respd/internal/resp"
)

// Kind identifies which verb a Command represents.
type Kind int

const (
	KindPing Kind = iota
	KindEcho
	KindQuit
	KindGet
	KindSet
	KindGetSet
	KindAppend
	KindStrlen
	KindIncr
	KindIncrBy
	KindDecr
	KindDecrBy
	KindMGet
	KindMSet
	KindDel
	KindExists
	KindExpire
	KindPExpire
	KindTTL
	KindPTTL
	KindPersist
	KindKeys
	KindType
	KindRename
	KindDBSize
	KindFlushDB
	KindInfo
	KindUnknown
)

// Pair is a key/value pair for MSET.
type Pair struct {
	Key   string
	Value []byte
}

// Command is the decoded, validated representation of one client
// request. Only the fields relevant to Kind are meaningful; this is
// the idiomatic Go rendering of a tagged union (the source language's
// enum-of-structs collapses to one struct plus a discriminant).
type Command struct {
	Kind Kind

	Key     string
	Keys    []string
	Value   []byte
	Delta   int64
	Pattern string
	NewKey  string
	Pairs   []Pair
	Arg     string
	HasArg  bool

	// SET options.
	TTL     time.Duration
	HasTTL  bool
	NX      bool
	XX      bool

	// Populated only for KindUnknown.
	Name string
}

// ValidationError covers the Protocol and Command error classes: a
// malformed request that the connection handler replies to with an
// Error value but keeps the session open for.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, a ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, a...)}
}

// WrongArity reports a command invoked with the wrong number of
// arguments, per the spec's named error shape.
type WrongArity struct {
	Command  string
	Expected string // human-readable arity description, e.g. "exactly 1" or "at least 1"
	Got      int
}

func (e *WrongArity) Error() string {
	return fmt.Sprintf("wrong number of arguments for '%s' (expected %s, got %d)", e.Command, e.Expected, e.Got)
}

// Parse validates v as a command array and decodes it into a Command.
// v must be a non-empty Array whose first element is a bulk or simple
// string (the command name, case-insensitive); anything else is a
// ValidationError. Unrecognized verbs decode successfully as
// KindUnknown rather than erroring, so the executor can reply with an
// Error value without closing the connection.
func Parse(v resp.Value) (Command, error) {
	if v.Kind != resp.KindArray {
		return Command{}, validationErrorf("expected array")
	}
	if len(v.Array) == 0 {
		return Command{}, validationErrorf("empty command")
	}

	name, ok := v.Array[0].AsString()
	if !ok {
		return Command{}, validationErrorf("command name must be a string")
	}
	name = strings.ToUpper(name)
	args := v.Array[1:]

	switch name {
	case "PING":
		return parsePing(args)
	case "ECHO":
		return parseEcho(args)
	case "QUIT":
		return Command{Kind: KindQuit}, nil
	case "GET":
		return parseOneKey(KindGet, "GET", args)
	case "SET":
		return parseSet(args)
	case "GETSET":
		return parseKeyValue(KindGetSet, "GETSET", args)
	case "APPEND":
		return parseKeyValue(KindAppend, "APPEND", args)
	case "STRLEN":
		return parseOneKey(KindStrlen, "STRLEN", args)
	case "INCR":
		return parseOneKey(KindIncr, "INCR", args)
	case "DECR":
		return parseOneKey(KindDecr, "DECR", args)
	case "INCRBY":
		return parseKeyDelta(KindIncrBy, "INCRBY", args)
	case "DECRBY":
		return parseKeyDelta(KindDecrBy, "DECRBY", args)
	case "MGET":
		return parseKeys(KindMGet, "MGET", args, 1)
	case "MSET":
		return parseMSet(args)
	case "DEL":
		return parseKeys(KindDel, "DEL", args, 1)
	case "EXISTS":
		return parseKeys(KindExists, "EXISTS", args, 1)
	case "EXPIRE":
		return parseKeyTTLSeconds(KindExpire, "EXPIRE", args)
	case "PEXPIRE":
		return parseKeyTTLMillis(KindPExpire, "PEXPIRE", args)
	case "TTL":
		return parseOneKey(KindTTL, "TTL", args)
	case "PTTL":
		return parseOneKey(KindPTTL, "PTTL", args)
	case "PERSIST":
		return parseOneKey(KindPersist, "PERSIST", args)
	case "KEYS":
		return parsePattern(args)
	case "TYPE":
		return parseOneKey(KindType, "TYPE", args)
	case "RENAME":
		return parseRename(args)
	case "DBSIZE":
		return Command{Kind: KindDBSize}, nil
	case "FLUSHDB", "FLUSHALL":
		return Command{Kind: KindFlushDB}, nil
	case "INFO":
		return Command{Kind: KindInfo}, nil
	default:
		return Command{Kind: KindUnknown, Name: name}, nil
	}
}

func parsePing(args []resp.Value) (Command, error) {
	if len(args) == 0 {
		return Command{Kind: KindPing}, nil
	}
	if len(args) > 1 {
		return Command{}, &WrongArity{Command: "PING", Expected: "at most 1", Got: len(args)}
	}
	arg, ok := args[0].AsString()
	if !ok {
		return Command{}, validationErrorf("PING argument must be a string")
	}
	return Command{Kind: KindPing, Arg: arg, HasArg: true}, nil
}

func parseEcho(args []resp.Value) (Command, error) {
	if len(args) != 1 {
		return Command{}, &WrongArity{Command: "ECHO", Expected: "exactly 1", Got: len(args)}
	}
	msg, ok := args[0].AsString()
	if !ok {
		return Command{}, validationErrorf("ECHO argument must be a string")
	}
	return Command{Kind: KindEcho, Arg: msg}, nil
}

func parseOneKey(kind Kind, name string, args []resp.Value) (Command, error) {
	if len(args) != 1 {
		return Command{}, &WrongArity{Command: name, Expected: "exactly 1", Got: len(args)}
	}
	key, ok := args[0].AsString()
	if !ok {
		return Command{}, validationErrorf("%s key must be a string", name)
	}
	return Command{Kind: kind, Key: key}, nil
}

func parseKeyValue(kind Kind, name string, args []resp.Value) (Command, error) {
	if len(args) != 2 {
		return Command{}, &WrongArity{Command: name, Expected: "exactly 2", Got: len(args)}
	}
	key, ok := args[0].AsString()
	if !ok {
		return Command{}, validationErrorf("%s key must be a string", name)
	}
	value, ok := args[1].AsBytes()
	if !ok {
		return Command{}, validationErrorf("%s value must be a string", name)
	}
	return Command{Kind: kind, Key: key, Value: value}, nil
}

func parseKeyDelta(kind Kind, name string, args []resp.Value) (Command, error) {
	if len(args) != 2 {
		return Command{}, &WrongArity{Command: name, Expected: "exactly 2", Got: len(args)}
	}
	key, ok := args[0].AsString()
	if !ok {
		return Command{}, validationErrorf("%s key must be a string", name)
	}
	delta, ok := args[1].AsInt64()
	if !ok {
		return Command{}, validationErrorf("%s increment must be an integer", name)
	}
	return Command{Kind: kind, Key: key, Delta: delta}, nil
}

func parseKeys(kind Kind, name string, args []resp.Value, min int) (Command, error) {
	if len(args) < min {
		return Command{}, &WrongArity{Command: name, Expected: fmt.Sprintf("at least %d", min), Got: len(args)}
	}
	keys := make([]string, 0, len(args))
	for _, a := range args {
		k, ok := a.AsString()
		if !ok {
			return Command{}, validationErrorf("%s key must be a string", name)
		}
		keys = append(keys, k)
	}
	return Command{Kind: kind, Keys: keys}, nil
}

func parseMSet(args []resp.Value) (Command, error) {
	if len(args) < 2 || len(args)%2 != 0 {
		return Command{}, &WrongArity{Command: "MSET", Expected: "a positive even number of", Got: len(args)}
	}
	pairs := make([]Pair, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].AsString()
		if !ok {
			return Command{}, validationErrorf("MSET key must be a string")
		}
		value, ok := args[i+1].AsBytes()
		if !ok {
			return Command{}, validationErrorf("MSET value must be a string")
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}
	return Command{Kind: KindMSet, Pairs: pairs}, nil
}

func parseKeyTTLSeconds(kind Kind, name string, args []resp.Value) (Command, error) {
	if len(args) != 2 {
		return Command{}, &WrongArity{Command: name, Expected: "exactly 2", Got: len(args)}
	}
	key, ok := args[0].AsString()
	if !ok {
		return Command{}, validationErrorf("%s key must be a string", name)
	}
	secs, ok := args[1].AsInt64()
	if !ok {
		return Command{}, validationErrorf("%s ttl must be an integer", name)
	}
	return Command{Kind: kind, Key: key, TTL: time.Duration(secs) * time.Second, HasTTL: true}, nil
}

func parseKeyTTLMillis(kind Kind, name string, args []resp.Value) (Command, error) {
	if len(args) != 2 {
		return Command{}, &WrongArity{Command: name, Expected: "exactly 2", Got: len(args)}
	}
	key, ok := args[0].AsString()
	if !ok {
		return Command{}, validationErrorf("%s key must be a string", name)
	}
	ms, ok := args[1].AsInt64()
	if !ok {
		return Command{}, validationErrorf("%s ttl must be an integer", name)
	}
	return Command{Kind: kind, Key: key, TTL: time.Duration(ms) * time.Millisecond, HasTTL: true}, nil
}

func parsePattern(args []resp.Value) (Command, error) {
	if len(args) != 1 {
		return Command{}, &WrongArity{Command: "KEYS", Expected: "exactly 1", Got: len(args)}
	}
	pattern, ok := args[0].AsString()
	if !ok {
		return Command{}, validationErrorf("KEYS pattern must be a string")
	}
	return Command{Kind: KindKeys, Pattern: pattern}, nil
}

func parseRename(args []resp.Value) (Command, error) {
	if len(args) != 2 {
		return Command{}, &WrongArity{Command: "RENAME", Expected: "exactly 2", Got: len(args)}
	}
	oldKey, ok := args[0].AsString()
	if !ok {
		return Command{}, validationErrorf("RENAME source key must be a string")
	}
	newKey, ok := args[1].AsString()
	if !ok {
		return Command{}, validationErrorf("RENAME destination key must be a string")
	}
	return Command{Kind: KindRename, Key: oldKey, NewKey: newKey}, nil
}

// parseSet handles SET key value [EX seconds | PX millis] [NX | XX].
// Options may appear in any order; a repeated expiry option overwrites
// the previous one. Both NX and XX may be supplied: per the decided
// Open Question, this core evaluates NX first and then XX against the
// same existence snapshot, matching the executor's sequential check.
func parseSet(args []resp.Value) (Command, error) {
	if len(args) < 2 {
		return Command{}, &WrongArity{Command: "SET", Expected: "at least 2", Got: len(args)}
	}
	key, ok := args[0].AsString()
	if !ok {
		return Command{}, validationErrorf("SET key must be a string")
	}
	value, ok := args[1].AsBytes()
	if !ok {
		return Command{}, validationErrorf("SET value must be a string")
	}

	cmd := Command{Kind: KindSet, Key: key, Value: value}

	i := 2
	for i < len(args) {
		opt, ok := args[i].AsString()
		if !ok {
			return Command{}, validationErrorf("SET option must be a string")
		}
		switch strings.ToUpper(opt) {
		case "EX":
			i++
			if i >= len(args) {
				return Command{}, validationErrorf("SET EX requires an argument")
			}
			secs, ok := args[i].AsInt64()
			if !ok {
				return Command{}, validationErrorf("SET EX argument must be an integer")
			}
			cmd.TTL = time.Duration(secs) * time.Second
			cmd.HasTTL = true
		case "PX":
			i++
			if i >= len(args) {
				return Command{}, validationErrorf("SET PX requires an argument")
			}
			ms, ok := args[i].AsInt64()
			if !ok {
				return Command{}, validationErrorf("SET PX argument must be an integer")
			}
			cmd.TTL = time.Duration(ms) * time.Millisecond
			cmd.HasTTL = true
		case "NX":
			cmd.NX = true
		case "XX":
			cmd.XX = true
		default:
			return Command{}, validationErrorf("unknown SET option %q", opt)
		}
		i++
	}

	return cmd, nil
}
