package blob

import (
	"context"
	"reflect"
	"testing"

	"github.com/biosustain/consortia-synthetic-anaerobe/pkg/metabolic"
)

func TestOpenSelectsDriverFromEnv(t *testing.T) {
	ctx := context.Background()

	t.Setenv("FLUXCORE_BLOB_DRIVER", "memory")
	store, err := Open(ctx)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("driver = %s", store.Driver())
	}

	t.Setenv("FLUXCORE_BLOB_DRIVER", "fs")
	t.Setenv("FLUXCORE_BLOB_FS_ROOT", t.TempDir())
	store, err = Open(ctx)
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("driver = %s", store.Driver())
	}

	t.Setenv("FLUXCORE_BLOB_DRIVER", "bogus")
	if _, err := Open(ctx); err == nil {
		t.Fatal("unknown driver must fail")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	doc := metabolic.Document{
		ID:          "m1",
		Metabolites: []metabolic.Metabolite{{ID: "glc_e"}},
		Reactions: []metabolic.ReactionRecord{
			{ID: "EX_glc", Metabolites: map[string]float64{"glc_e": -1}, LowerBound: -10, UpperBound: 1000},
		},
	}

	info, err := PutDocument(ctx, store, "models/m1.json", doc)
	if err != nil {
		t.Fatalf("put document: %v", err)
	}
	if info.ContentType != DocumentContentType {
		t.Fatalf("content type = %s", info.ContentType)
	}
	if info.Metadata["model_id"] != "m1" {
		t.Fatalf("metadata = %v", info.Metadata)
	}

	got, err := GetDocument(ctx, store, "models/m1.json")
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, doc)
	}

	if _, err := GetDocument(ctx, store, "missing"); err == nil {
		t.Fatal("missing key must fail")
	}
}
