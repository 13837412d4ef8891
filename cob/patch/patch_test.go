package patch_test

import (
	"testing"

	"collabnode/cob"
	"collabnode/cob/patch"
)

func TestPatchLifecycle(t *testing.T) {
	clock := cob.NewMockClock()
	backing := cob.NewMemBackingStore(clock)
	resource, _ := cob.NewContentID([]byte("project-c"))
	signer, err := cob.NewLocalSigner()
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	authorized := func(cob.NodeId) bool { return true }
	store := cob.NewStore[patch.Patch](backing, resource, patch.Projector, authorized, clock)

	obj, err := store.Create("open patch", patch.NewOpenOp("fix bug", "desc", "main", "feature"), signer)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	obj, err = store.Update(obj.ID, "review", patch.NewReviewOp("looks good"), signer)
	if err != nil {
		t.Fatalf("update (review): %v", err)
	}

	obj, err = store.Update(obj.ID, "merge", patch.NewMergeOp(), signer)
	if err != nil {
		t.Fatalf("update (merge): %v", err)
	}

	got, ok, err := store.Get(obj.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatalf("expected patch to be found")
	}
	if got.Status() != patch.StatusMerged {
		t.Fatalf("status = %v, want merged", got.Status())
	}
	if len(got.Reviews) != 1 || got.Reviews[0].Body != "looks good" {
		t.Fatalf("unexpected reviews: %+v", got.Reviews)
	}
	if got.Head != "feature" {
		t.Fatalf("head = %q, want %q", got.Head, "feature")
	}
}
