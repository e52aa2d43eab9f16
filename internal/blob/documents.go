package blob

import (
	"bytes"
	"context"
	"fmt"

	"github.com/biosustain/consortia-synthetic-anaerobe/pkg/metabolic"
)

// DocumentContentType is the MIME type recorded for stored model documents.
const DocumentContentType = "application/json"

// PutDocument serializes the model document and stores it under key.
func PutDocument(ctx context.Context, store Store, key string, doc metabolic.Document) (Info, error) {
	var buf bytes.Buffer
	if err := metabolic.EncodeDocument(&buf, doc); err != nil {
		return Info{}, fmt.Errorf("encode document: %w", err)
	}
	opts := PutOptions{
		ContentType: DocumentContentType,
		Metadata:    map[string]string{"model_id": doc.ID},
	}
	return store.Put(ctx, key, &buf, opts)
}

// GetDocument loads and decodes the model document stored under key.
func GetDocument(ctx context.Context, store Store, key string) (metabolic.Document, error) {
	_, body, err := store.Get(ctx, key)
	if err != nil {
		return metabolic.Document{}, err
	}
	defer func() { _ = body.Close() }()
	doc, err := metabolic.DecodeDocument(body)
	if err != nil {
		return metabolic.Document{}, fmt.Errorf("decode document %s: %w", key, err)
	}
	return doc, nil
}
