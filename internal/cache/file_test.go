package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	if _, err := c.Get(ctx, "user123:health_and_wellness"); !IsNotFound(err) {
		t.Fatalf("esperaba ErrNotFound, obtuve %v", err)
	}

	if err := c.Set(ctx, "user123:health_and_wellness", `{"sleep":[]}`, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "user123:health_and_wellness")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != `{"sleep":[]}` {
		t.Fatalf("valor = %q", got)
	}

	ok, err := c.Exists(ctx, "user123:health_and_wellness")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	if err := c.Delete(ctx, "user123:health_and_wellness"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "user123:health_and_wellness"); !IsNotFound(err) {
		t.Fatalf("tras Delete esperaba ErrNotFound, obtuve %v", err)
	}
}

func TestFileClientKeyLayout(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	if err := c.Set(context.Background(), "user123:activities_and_workouts", "{}", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// los ":" de la key separan subdirectorios
	want := filepath.Join(dir, "user123", "activities_and_workouts.json")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("no se creó %s: %v", want, err)
	}
}

func TestFileClientSanitizesTraversal(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	ctx := context.Background()

	if err := c.Set(ctx, "../escape:data", "{}", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// nada debe quedar fuera del directorio base
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape")); !os.IsNotExist(err) {
		t.Fatalf("la key con traversal escapó del directorio base")
	}
	if _, err := c.Get(ctx, "../escape:data"); err != nil {
		t.Fatalf("la key sanitizada debe ser consistente entre Set y Get: %v", err)
	}
}

func TestFileClientStats(t *testing.T) {
	c, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	ctx := context.Background()
	_ = c.Set(ctx, "a:x", "{}", 0)
	_ = c.Set(ctx, "a:y", "{}", 0)
	_ = c.Set(ctx, "b:z", "{}", 0)

	st, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Driver != "file" || st.Keys != 3 {
		t.Fatalf("stats = %+v", st)
	}
}
