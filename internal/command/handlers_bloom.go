// handlers_bloom.go implements BF.ADD, BF.MADD, BF.EXISTS, and BF.MEXISTS.
// A bloom filter lives under an ordinary key as a BINARY value, so it
// rides through SAVE/LOAD/BACKUP with no special casing: these handlers
// only decode it on the way in and encode it on the way out.
package command

import (
	"kvserver/internal/bloom"
	"kvserver/internal/kvstore"
	"kvserver/internal/protocol"
)

// loadOrCreateFilter decodes the BINARY value at cur, or builds a fresh
// default-sized filter if the key was absent. It is called from inside
// Store.Mutate, so cur/ok always reflect the current value under the
// store's lock — two concurrent BF.ADD calls on the same key can never
// both read the same starting bytes and overwrite each other's bit.
func loadOrCreateFilter(cur kvstore.Value, ok bool) (*bloom.Filter, error) {
	if !ok {
		return bloom.New(bloom.DefaultCapacity, bloom.DefaultFalsePositiveRate), nil
	}
	if cur.Tag != kvstore.TagBinary {
		return nil, kvstore.ErrTypeMismatch
	}
	return bloom.Decode(cur.Bytes)
}

// handleBFAdd adds one item to the filter at args[0], creating the filter
// if the key doesn't exist yet. Replies :1 if the item was new, :0 if the
// filter already reported it present.
func (app *Application) handleBFAdd(rw *protocol.ReplyWriter, args []string) {
	key, item := []byte(args[0]), args[1]

	var added bool
	err := app.Store.Mutate(key, func(cur kvstore.Value, ok bool) (kvstore.Value, bool, error) {
		f, err := loadOrCreateFilter(cur, ok)
		if err != nil {
			return cur, false, err
		}
		added, err = f.Add([]byte(item))
		if err != nil {
			return cur, false, err
		}
		return kvstore.BinaryValue(f.Encode()), true, nil
	})
	if err != nil {
		writeStoreError(rw, err)
		return
	}
	if added {
		rw.WriteInteger(1)
	} else {
		rw.WriteInteger(0)
	}
}

// handleBFMAdd adds every item in args[1:] to the filter at args[0] in a
// single locked mutation, replying with one 0/1 per item in order.
func (app *Application) handleBFMAdd(rw *protocol.ReplyWriter, args []string) {
	key, items := []byte(args[0]), args[1:]

	results := make([]int64, len(items))
	err := app.Store.Mutate(key, func(cur kvstore.Value, ok bool) (kvstore.Value, bool, error) {
		f, err := loadOrCreateFilter(cur, ok)
		if err != nil {
			return cur, false, err
		}
		for i, item := range items {
			added, err := f.Add([]byte(item))
			if err != nil {
				return cur, false, err
			}
			if added {
				results[i] = 1
			}
		}
		return kvstore.BinaryValue(f.Encode()), true, nil
	})
	if err != nil {
		writeStoreError(rw, err)
		return
	}
	rw.WriteIntegerArray(results)
}

// handleBFExists reports whether args[1] is probably present in the
// filter at args[0]. A filter that doesn't exist yet contains nothing.
func (app *Application) handleBFExists(rw *protocol.ReplyWriter, args []string) {
	present, err := app.checkFilter(args[0], args[1])
	if err != nil {
		writeStoreError(rw, err)
		return
	}
	if present {
		rw.WriteInteger(1)
	} else {
		rw.WriteInteger(0)
	}
}

// handleBFMExists is BF.EXISTS over args[1:], one 0/1 reply per item.
func (app *Application) handleBFMExists(rw *protocol.ReplyWriter, args []string) {
	items := args[1:]
	results := make([]int64, len(items))
	for i, item := range items {
		present, err := app.checkFilter(args[0], item)
		if err != nil {
			writeStoreError(rw, err)
			return
		}
		if present {
			results[i] = 1
		}
	}
	rw.WriteIntegerArray(results)
}

// checkFilter reads the filter at key without creating or rewriting it.
func (app *Application) checkFilter(key, item string) (bool, error) {
	v, err := app.Store.Get([]byte(key))
	if err != nil {
		if err == kvstore.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	if v.Tag != kvstore.TagBinary {
		return false, kvstore.ErrTypeMismatch
	}
	f, err := bloom.Decode(v.Bytes)
	if err != nil {
		return false, err
	}
	return f.Check([]byte(item)), nil
}
