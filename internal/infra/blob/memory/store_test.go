package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/biosustain/consortia-synthetic-anaerobe/internal/blob/core"
)

func TestPutGetRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	info, err := store.Put(ctx, "models/m1.json", bytes.NewBufferString(`{"id":"m1"}`), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"model_id": "m1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(`{"id":"m1"}`)) || info.ContentType != "application/json" {
		t.Fatalf("info = %+v", info)
	}

	got, body, err := store.Get(ctx, "models/m1.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = body.Close() }()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"id":"m1"}` {
		t.Fatalf("data = %s", data)
	}
	if got.Metadata["model_id"] != "m1" {
		t.Fatalf("metadata = %v", got.Metadata)
	}
}

func TestPutReplacesExisting(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", bytes.NewBufferString("v1"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", bytes.NewBufferString("v2"), core.PutOptions{}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	_, body, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = body.Close() }()
	data, _ := io.ReadAll(body)
	if string(data) != "v2" {
		t.Fatalf("data = %s, want v2", data)
	}
}

func TestNotFound(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get err = %v", err)
	}
	if _, err := store.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("head err = %v", err)
	}
	if ok, err := store.Delete(ctx, "missing"); err != nil || ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
}

func TestListPrefix(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, key := range []string{"models/a", "models/b", "solutions/a"} {
		if _, err := store.Put(ctx, key, bytes.NewBufferString("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "models/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "models/a" || infos[1].Key != "models/b" {
		t.Fatalf("infos = %+v", infos)
	}
}

func TestPresignUnsupported(t *testing.T) {
	store := New()
	if _, err := store.PresignURL(context.Background(), "k", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("err = %v", err)
	}
	if store.Driver() != core.DriverMemory {
		t.Fatalf("driver = %s", store.Driver())
	}
}
