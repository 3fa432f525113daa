// Tests for JSONPersister and YAMLPersister round-trips.
package production

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
)

func TestJSONPersister_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	p, err := NewJSONPersister(dir)
	if err != nil {
		t.Fatalf("NewJSONPersister failed: %v", err)
	}

	rec := Record{
		InterpreterID: "test-machine",
		Value:         []string{"s1"},
		Context:       map[string]any{"key": "value", "counter": 42},
	}

	if err := p.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := p.Load(context.Background(), "test-machine")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	recJSON, _ := json.Marshal(rec)
	loadedJSON, _ := json.Marshal(loaded)
	if !bytes.Equal(recJSON, loadedJSON) {
		t.Errorf("Record JSON mismatch: got %s, want %s", loadedJSON, recJSON)
	}
}

func TestJSONPersister_LoadNonExistent(t *testing.T) {
	dir := t.TempDir()
	p, err := NewJSONPersister(dir)
	if err != nil {
		t.Fatalf("NewJSONPersister failed: %v", err)
	}

	_, err = p.Load(context.Background(), "nonexistent")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist wrapped error, got %v", err)
	}
}

func TestYAMLPersister_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	p, err := NewYAMLPersister(dir)
	if err != nil {
		t.Fatalf("NewYAMLPersister failed: %v", err)
	}

	rec := Record{
		InterpreterID: "restore-test",
		Value:         []string{"yellow"},
		Context:       map[string]any{"restored": true},
		Done:          false,
	}
	if err := p.Save(context.Background(), rec); err != nil {
		t.Fatal(err)
	}

	loaded, err := p.Load(context.Background(), "restore-test")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.InterpreterID != "restore-test" {
		t.Errorf("InterpreterID mismatch: got %q", loaded.InterpreterID)
	}
}

func TestYAMLPersister_LoadNonExistent(t *testing.T) {
	dir := t.TempDir()
	p, err := NewYAMLPersister(dir)
	if err != nil {
		t.Fatalf("NewYAMLPersister failed: %v", err)
	}

	_, err = p.Load(context.Background(), "nonexistent")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist wrapped error, got %v", err)
	}
}
