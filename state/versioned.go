// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// EmptyCommit is the stable sentinel commit hash a freshly constructed
// Versioned store reports before its first snapshot. It is fixed rather
// than random so that two independently constructed empty stores compare
// equal.
const EmptyCommit = "sentinel:" + emptyCommitDigest

const emptyCommitDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b85"

// SnapshotResult reports the outcome of a [Versioned.Snapshot] call.
type SnapshotResult struct {
	// CommitHash is the resulting current commit (unchanged from before the
	// call if there was nothing to commit).
	CommitHash string
	// Changed is true if a new commit was actually created.
	Changed bool
	// UnsavedKeys lists logical keys whose value could not be serialized;
	// they remain pending in the working view and are retried on the next
	// snapshot.
	UnsavedKeys []string
}

type accessRecord struct {
	hash  string
	value any
}

// Versioned is the content-addressed, append-only, commit/checkout store
// spec components build on: every write is staged in an ephemeral overlay
// until [Versioned.Snapshot] allocates a new commit and persists the
// changed keys as immutable byte blobs in the backing [KV].
type Versioned struct {
	mu sync.Mutex

	kv KV

	currentCommit string // "" until first access; see CurrentCommit
	commitKeys    map[string]string
	ephemeral     map[string]any
	removed       map[string]bool
	accessed      map[string]accessRecord
}

var _ State = (*Versioned)(nil)

// NewVersioned creates a store with no history, backed by kv.
func NewVersioned(kv KV) *Versioned {
	return &Versioned{
		kv:         kv,
		commitKeys: map[string]string{},
		ephemeral:  map[string]any{},
		removed:    map[string]bool{},
		accessed:   map[string]accessRecord{},
	}
}

// CurrentCommit returns the store's current commit hash, assigning the
// stable empty-state sentinel on first access if no commit has happened
// yet.
func (v *Versioned) CurrentCommit() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.currentCommit == "" {
		v.currentCommit = EmptyCommit
	}
	return v.currentCommit
}

func (v *Versioned) Get(key string) (any, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.getLocked(key)
}

func (v *Versioned) getLocked(key string) (any, bool) {
	if val, ok := v.ephemeral[key]; ok {
		return val, true
	}
	if v.removed[key] {
		return nil, false
	}
	versionedKey, ok := v.commitKeys[key]
	if !ok {
		return nil, false
	}
	raw, ok := v.kv.Get(versionedKey)
	if !ok {
		return nil, false
	}
	val, err := Deserialize(raw)
	if err != nil {
		return nil, false
	}
	if _, tracked := v.accessed[key]; !tracked {
		v.accessed[key] = accessRecord{hash: contentHash(raw), value: val}
	}
	return val, true
}

func (v *Versioned) Set(key string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.removed, key)
	v.ephemeral[key] = value
}

func (v *Versioned) Remove(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, inEphemeral := v.ephemeral[key]
	_, inCommit := v.commitKeys[key]
	if !inEphemeral && (!inCommit || v.removed[key]) {
		return false
	}
	delete(v.ephemeral, key)
	delete(v.accessed, key)
	v.removed[key] = true
	return true
}

func (v *Versioned) workingKeysLocked() []string {
	seen := make(map[string]struct{})
	keys := make([]string, 0, len(v.commitKeys)+len(v.ephemeral))
	for k := range v.commitKeys {
		if v.removed[k] {
			continue
		}
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for k := range v.ephemeral {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return filterReserved(keys)
}

func (v *Versioned) Keys() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.workingKeysLocked()
}

func (v *Versioned) Values() []any {
	v.mu.Lock()
	defer v.mu.Unlock()
	keys := v.workingKeysLocked()
	vals := make([]any, 0, len(keys))
	for _, k := range keys {
		val, _ := v.getLocked(k)
		vals = append(vals, val)
	}
	return vals
}

func (v *Versioned) Items() map[string]any {
	v.mu.Lock()
	defer v.mu.Unlock()
	keys := v.workingKeysLocked()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k], _ = v.getLocked(k)
	}
	return out
}

func (v *Versioned) Contains(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.ephemeral[key]; ok {
		return true
	}
	if v.removed[key] {
		return false
	}
	_, ok := v.commitKeys[key]
	return ok
}

func (v *Versioned) BaseStore() State { return v }

// Snapshot serializes every pending write (explicit Set calls, plus any
// previously read object whose byte representation has since mutated) and,
// if anything changed, allocates a new commit. Keys that fail to serialize
// are reported in UnsavedKeys and remain pending for the next Snapshot call
// rather than being silently dropped.
func (v *Versioned) Snapshot() SnapshotResult {
	v.mu.Lock()
	defer v.mu.Unlock()

	// Promote mutated previously-read objects to pending writes.
	for key, rec := range v.accessed {
		if _, alreadyWriting := v.ephemeral[key]; alreadyWriting {
			continue
		}
		newBytes, err := Serialize(rec.value)
		if err != nil {
			v.ephemeral[key] = rec.value
			continue
		}
		if contentHash(newBytes) != rec.hash {
			v.ephemeral[key] = rec.value
		}
	}
	v.accessed = map[string]accessRecord{}

	if v.currentCommit == "" {
		v.currentCommit = EmptyCommit
	}

	if len(v.ephemeral) == 0 && len(v.removed) == 0 {
		return SnapshotResult{CommitHash: v.currentCommit, Changed: false}
	}

	newHash := uuid.New().String()
	newCommitKeys := make(map[string]string, len(v.commitKeys))
	for k, vk := range v.commitKeys {
		if v.removed[k] {
			continue
		}
		newCommitKeys[k] = vk
	}

	var unsaved []string
	var diffKeys []string
	leftover := map[string]any{}
	for key, value := range v.ephemeral {
		if !reserved(key) {
			diffKeys = append(diffKeys, key)
		}
		raw, err := Serialize(value)
		if err != nil {
			unsaved = append(unsaved, key)
			leftover[key] = value
			continue
		}
		versionedKey := fmt.Sprintf("%s:%s", newHash, key)
		v.kv.Set(versionedKey, raw)
		newCommitKeys[key] = versionedKey
	}

	if diffRaw, err := Serialize(diffKeys); err == nil {
		v.kv.Set(fmt.Sprintf("__diff_keys__:%s", newHash), diffRaw)
	}
	keysetRaw, err := Serialize(stringMapToAny(newCommitKeys))
	if err == nil {
		v.kv.Set("__commit_keys__:"+newHash, keysetRaw)
	}
	v.kv.Set("__parent_commit__:"+newHash, []byte(v.currentCommit))
	v.currentCommit = newHash
	v.commitKeys = newCommitKeys
	v.ephemeral = leftover
	v.removed = map[string]bool{}

	return SnapshotResult{CommitHash: newHash, Changed: true, UnsavedKeys: unsaved}
}

// Diffs returns the key/value pairs that were written as part of
// commitHash (or the current commit, if commitHash is ""), as a map that
// carries no write order. Useful for rendering "what changed this turn" without
// diffing two full snapshots.
func (v *Versioned) Diffs(commitHash string) (map[string]any, error) {
	v.mu.Lock()
	target := commitHash
	if target == "" {
		target = v.currentCommit
	}
	v.mu.Unlock()
	if target == "" || target == EmptyCommit {
		return map[string]any{}, nil
	}

	raw, ok := v.kv.Get(fmt.Sprintf("__diff_keys__:%s", target))
	if !ok {
		return map[string]any{}, nil
	}
	decoded, err := Deserialize(raw)
	if err != nil {
		return nil, fmt.Errorf("decode diff keys for %s: %w", target, err)
	}
	keyList, _ := decoded.([]any)

	view, err := v.Checkout(target)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(keyList))
	for _, k := range keyList {
		key, _ := k.(string)
		out[key], _ = view.Get(key)
	}
	return out, nil
}

// Checkout returns an independent view of the store rooted at commitHash:
// writes made through the returned store never affect v, and vice versa.
// Both views share the same backing KV, so any commit reachable from either
// is visible through the other's History.
func (v *Versioned) Checkout(commitHash string) (*Versioned, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if commitHash == EmptyCommit {
		return NewVersioned(v.kv), nil
	}

	var commitKeys map[string]string
	if commitHash == v.currentCommit {
		commitKeys = cloneStringMap(v.commitKeys)
	} else {
		keyset, ok := v.kv.Get("__commit_keys__:" + commitHash)
		if !ok {
			return nil, fmt.Errorf("unknown commit %s", commitHash)
		}
		decoded, err := Deserialize(keyset)
		if err != nil {
			return nil, fmt.Errorf("decode commit keyset %s: %w", commitHash, err)
		}
		commitKeys = toStringMap(decoded)
	}

	return &Versioned{
		kv:            v.kv,
		currentCommit: commitHash,
		commitKeys:    commitKeys,
		ephemeral:     map[string]any{},
		removed:       map[string]bool{},
		accessed:      map[string]accessRecord{},
	}, nil
}

// History walks the parent-commit chain from the current commit back to
// the empty sentinel, newest first.
func (v *Versioned) History() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.currentCommit == "" {
		v.currentCommit = EmptyCommit
	}
	chain := []string{v.currentCommit}
	cur := v.currentCommit
	for cur != "" && cur != EmptyCommit {
		raw, ok := v.kv.Get("__parent_commit__:" + cur)
		if !ok {
			break
		}
		parent := string(raw)
		chain = append(chain, parent)
		if parent == EmptyCommit {
			break
		}
		cur = parent
	}
	return chain
}

func toStringMap(v any) map[string]string {
	m, _ := v.(map[string]any)
	out := make(map[string]string, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func stringMapToAny(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
