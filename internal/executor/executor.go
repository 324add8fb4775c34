/*
Package executor maps a decoded command.Command onto the keyspace,
producing the resp.Value reply and whether the connection should close
afterward. Execute is a pure function of its arguments: no I/O, no
locking beyond what store.Store already provides.
*/
package executor

import (
	"github.com/lineframe/respd/internal/command"
	"github.com/lineframe/respd/internal/resp"
	"github.com/lineframe/respd/internal/serverinfo"
	"github.com/lineframe/respd/internal/store"
)

// Execute runs cmd against st and returns the reply to write back plus
// whether the connection should close after writing it (true only for
// QUIT).
func Execute(cmd command.Command, st *store.Store) (resp.Value, bool) {
	switch cmd.Kind {
	case command.KindPing:
		if cmd.HasArg {
			return resp.BulkStr(cmd.Arg), false
		}
		return resp.Simple("PONG"), false

	case command.KindEcho:
		return resp.BulkStr(cmd.Arg), false

	case command.KindQuit:
		return resp.Simple("OK"), true

	case command.KindGet:
		v, ok := st.Get(cmd.Key)
		if !ok {
			return resp.Null, false
		}
		return resp.BulkBytes(v), false

	case command.KindSet:
		return execSet(cmd, st), false

	case command.KindGetSet:
		prev, ok := st.GetSet(cmd.Key, cmd.Value)
		if !ok {
			return resp.Null, false
		}
		return resp.BulkBytes(prev), false

	case command.KindAppend:
		n := st.Append(cmd.Key, cmd.Value)
		return resp.Int64(int64(n)), false

	case command.KindStrlen:
		return resp.Int64(int64(st.Strlen(cmd.Key))), false

	case command.KindIncr:
		return execIncr(cmd.Key, 1, st), false

	case command.KindDecr:
		return execIncr(cmd.Key, -1, st), false

	case command.KindIncrBy:
		return execIncr(cmd.Key, cmd.Delta, st), false

	case command.KindDecrBy:
		return execIncr(cmd.Key, -cmd.Delta, st), false

	case command.KindMGet:
		items := make([]resp.Value, len(cmd.Keys))
		for i, k := range cmd.Keys {
			if v, ok := st.Get(k); ok {
				items[i] = resp.BulkBytes(v)
			} else {
				items[i] = resp.Null
			}
		}
		return resp.Arr(items...), false

	case command.KindMSet:
		for _, p := range cmd.Pairs {
			st.Set(p.Key, p.Value)
		}
		return resp.Simple("OK"), false

	case command.KindDel:
		return resp.Int64(int64(st.DelMulti(cmd.Keys))), false

	case command.KindExists:
		return resp.Int64(int64(st.ExistsMulti(cmd.Keys))), false

	case command.KindExpire:
		return boolInteger(st.Expire(cmd.Key, cmd.TTL)), false

	case command.KindPExpire:
		return boolInteger(st.Expire(cmd.Key, cmd.TTL)), false

	case command.KindTTL:
		return resp.Int64(st.TTL(cmd.Key)), false

	case command.KindPTTL:
		return resp.Int64(st.PTTL(cmd.Key)), false

	case command.KindPersist:
		return boolInteger(st.Persist(cmd.Key)), false

	case command.KindKeys:
		keys := st.Keys(cmd.Pattern)
		items := make([]resp.Value, len(keys))
		for i, k := range keys {
			items[i] = resp.BulkStr(k)
		}
		return resp.Arr(items...), false

	case command.KindType:
		return resp.Simple(st.Type(cmd.Key)), false

	case command.KindRename:
		if !st.Rename(cmd.Key, cmd.NewKey) {
			return resp.Err("ERR no such key"), false
		}
		return resp.Simple("OK"), false

	case command.KindDBSize:
		return resp.Int64(int64(st.DBSize())), false

	case command.KindFlushDB:
		st.FlushDB()
		return resp.Simple("OK"), false

	case command.KindInfo:
		return resp.BulkStr(serverinfo.Build(st)), false

	case command.KindUnknown:
		return resp.Errf("ERR unknown command '%s'", cmd.Name), false

	default:
		return resp.Err("ERR unknown command"), false
	}
}

// execSet implements the SET NX/XX decision via the Store's atomic
// SetConditional, which checks (and writes) under a single lock
// acquisition — so a concurrent pair of SET ... NX (or XX) calls on
// the same key can't both observe the precondition met and both
// write. NX and XX are evaluated together against the same existence
// snapshot even when both are supplied. A Null reply means the
// precondition wasn't met and no write happened.
func execSet(cmd command.Command, st *store.Store) resp.Value {
	if cmd.NX || cmd.XX {
		if !st.SetConditional(cmd.Key, cmd.Value, cmd.TTL, cmd.NX, cmd.XX) {
			return resp.Null
		}
		return resp.Simple("OK")
	}

	if cmd.HasTTL {
		st.SetWithExpiry(cmd.Key, cmd.Value, cmd.TTL)
	} else {
		st.Set(cmd.Key, cmd.Value)
	}
	return resp.Simple("OK")
}

func execIncr(key string, delta int64, st *store.Store) resp.Value {
	n, err := st.Incr(key, delta)
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	return resp.Int64(n)
}

func boolInteger(b bool) resp.Value {
	if b {
		return resp.Int64(1)
	}
	return resp.Int64(0)
}
