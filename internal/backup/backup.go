// Package backup dumps and restores the whole flat namespace. A
// snapshot is a single JSON object of every key/value pair; the latest
// manifest points at the snapshot to restore from. Local filesystem
// only; this is an offline safety net, not synchronization.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cfp/internal/kvport"
)

type Manifest struct {
	SnapshotID           string `json:"snapshotId"`
	KeyCount             int    `json:"keyCount"`
	CreatedAtEpochSecond int64  `json:"createdAt"`
}

const manifestFile = "manifest.latest.json"
const stateFile = "state.json"

// FilesystemBackup writes snapshots under baseDir/<snapshotID>/state.json
// and maintains baseDir/manifest.latest.json.
type FilesystemBackup struct {
	baseDir string
}

func NewFilesystemBackup(baseDir string) *FilesystemBackup {
	return &FilesystemBackup{baseDir: baseDir}
}

// WriteSnapshot dumps every key of the port and publishes the manifest.
func (f *FilesystemBackup) WriteSnapshot(snapshotID string, port kvport.Port) (Manifest, error) {
	if err := os.MkdirAll(filepath.Join(f.baseDir, snapshotID), 0o755); err != nil {
		return Manifest{}, fmt.Errorf("mkdir: %w", err)
	}

	dump := map[string]string{}
	for _, k := range port.Keys() {
		if v, ok := port.Get(k); ok {
			dump[k] = v
		}
	}

	out, err := os.Create(filepath.Join(f.baseDir, snapshotID, stateFile))
	if err != nil {
		return Manifest{}, fmt.Errorf("create: %w", err)
	}
	defer out.Close()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dump); err != nil {
		return Manifest{}, fmt.Errorf("encode: %w", err)
	}

	m := Manifest{
		SnapshotID:           snapshotID,
		KeyCount:             len(dump),
		CreatedAtEpochSecond: time.Now().UTC().Unix(),
	}
	if err := f.publishLatest(m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func (f *FilesystemBackup) publishLatest(m Manifest) error {
	out, err := os.Create(filepath.Join(f.baseDir, manifestFile))
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	defer out.Close()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&m); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return nil
}

func (f *FilesystemBackup) ReadLatest() (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(f.baseDir, manifestFile))
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return m, nil
}

// RestoreLatest replaces the port's entire contents with the snapshot
// the latest manifest points at.
func (f *FilesystemBackup) RestoreLatest(port kvport.Port) (Manifest, error) {
	m, err := f.ReadLatest()
	if err != nil {
		return Manifest{}, err
	}
	if err := f.Restore(m.SnapshotID, port); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Restore loads one snapshot into the port, removing keys not present
// in the dump first.
func (f *FilesystemBackup) Restore(snapshotID string, port kvport.Port) error {
	data, err := os.ReadFile(filepath.Join(f.baseDir, snapshotID, stateFile))
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var dump map[string]string
	if err := json.Unmarshal(data, &dump); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}

	for _, k := range port.Keys() {
		if _, ok := dump[k]; !ok {
			port.Remove(k)
		}
	}
	for k, v := range dump {
		if err := port.Set(k, v); err != nil {
			return fmt.Errorf("restore key %q: %w", k, err)
		}
	}
	return nil
}
