package keyspace

// Key is an open key. It holds the key's exclusive lock until Close.
// A Key must be used by one goroutine at a time.
type Key struct {
	store  *Store
	name   string
	mode   Mode
	e      *entry
	closed bool
}

// Name returns the key name.
func (k *Key) Name() string { return k.name }

// Mode returns the mode the key was opened with.
func (k *Key) Mode() Mode { return k.mode }

// Closed reports whether Close has been called.
func (k *Key) Closed() bool { return k.closed }

// IsEmpty reports whether the key stores no value.
func (k *Key) IsEmpty() bool {
	return k.closed || k.e.value == nil
}

// Type returns the type of the stored value, or nil when empty.
func (k *Key) Type() *ValueType {
	if k.closed {
		return nil
	}
	return k.e.typ
}

// Value returns the stored value if it has type t.
// An empty key yields (nil, nil); a value of another type yields ErrWrongType.
func (k *Key) Value(t *ValueType) (any, error) {
	if k.closed {
		return nil, &KeyError{Op: "get", Key: k.name, Err: ErrKeyClosed}
	}
	if k.e.value == nil {
		return nil, nil
	}
	if k.e.typ != t {
		return nil, &KeyError{Op: "get", Key: k.name, Err: ErrWrongType}
	}
	return k.e.value, nil
}

// SetValue replaces the stored value, whatever its previous type.
func (k *Key) SetValue(t *ValueType, v any) error {
	if err := k.writable("set"); err != nil {
		return err
	}
	if v == nil || t == nil {
		return &KeyError{Op: "set", Key: k.name, Err: ErrNilValue}
	}
	k.store.mu.Lock()
	k.e.typ = t
	k.e.value = v
	k.store.mu.Unlock()
	return nil
}

// Delete removes the stored value. Deleting an empty key is a no-op that
// reports false.
func (k *Key) Delete() (bool, error) {
	if err := k.writable("delete"); err != nil {
		return false, err
	}
	if k.e.value == nil {
		return false, nil
	}
	k.store.mu.Lock()
	k.e.typ = nil
	k.e.value = nil
	k.store.mu.Unlock()
	return true, nil
}

// Close releases the key lock. Closing twice is a no-op.
func (k *Key) Close() error {
	if k.closed {
		return nil
	}
	k.closed = true
	k.store.release(k.name, k.e, true)
	return nil
}

func (k *Key) writable(op string) error {
	if k.closed {
		return &KeyError{Op: op, Key: k.name, Err: ErrKeyClosed}
	}
	if k.mode&ModeWrite == 0 {
		return &KeyError{Op: op, Key: k.name, Err: ErrReadOnly}
	}
	return nil
}
