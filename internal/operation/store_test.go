package operation

import (
	"context"
	"encoding/json"
	"testing"

	"server/internal/domain"
)

func token(name, raw string) domain.OperationToken {
	return domain.OperationToken{Name: name, Raw: json.RawMessage(raw)}
}

func TestMemoryStoreSaveGetRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	saved := token("models/veo/operations/abc", `{"name":"models/veo/operations/abc"}`)
	if err := store.Save(ctx, saved); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	got, err := store.Get(ctx, "models/veo/operations/abc")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Name != saved.Name || string(got.Raw) != string(saved.Raw) {
		t.Fatalf("Get = %+v, want the saved token back byte for byte", got)
	}
}

func TestMemoryStoreGetUnknownIsNotFound(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(context.Background(), "models/veo/operations/nope")
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("err kind = %v, want NOT_FOUND", domain.KindOf(err))
	}
}

func TestMemoryStoreSaveWithoutNameIsNoOp(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Save(ctx, token("", `{"done":false}`)); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := store.Save(ctx, token("   ", `{"done":false}`)); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if _, err := store.Get(ctx, ""); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatal("a nameless save must not create an entry")
	}
}

func TestMemoryStoreSaveMalformedPayloadIsNoOp(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Save(ctx, token("op-1", `{not json`)); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if _, err := store.Get(ctx, "op-1"); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatal("a malformed save must not create an entry")
	}
}

func TestMemoryStoreUpdateOverwrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Save(ctx, token("op-1", `{"name":"op-1","done":false}`)); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := store.Update(ctx, token("op-1", `{"name":"op-1","done":true}`)); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	got, err := store.Get(ctx, "op-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !got.Done() {
		t.Fatal("Update must fully overwrite the stored payload")
	}
}

func TestMemoryStoreGetReturnsACopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Save(ctx, token("op-1", `{"name":"op-1"}`)); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	got, err := store.Get(ctx, "op-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	got.Raw[0] = 'X'

	again, err := store.Get(ctx, "op-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(again.Raw) != `{"name":"op-1"}` {
		t.Fatalf("stored payload mutated through a returned copy: %s", again.Raw)
	}
}
