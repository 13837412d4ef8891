package thread_test

import (
	"testing"

	"collabnode/cob"
	"collabnode/cob/thread"
)

func TestThreadAppendsComments(t *testing.T) {
	clock := cob.NewMockClock()
	backing := cob.NewMemBackingStore(clock)
	resource, _ := cob.NewContentID([]byte("project-d"))
	signer, err := cob.NewLocalSigner()
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	authorized := func(cob.NodeId) bool { return true }
	store := cob.NewStore[thread.Thread](backing, resource, thread.Projector, authorized, clock)

	obj, err := store.Create("start", thread.NewCommentOp("first"), signer)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	obj, err = store.Update(obj.ID, "reply", thread.NewCommentOp("second"), signer)
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, ok, err := store.Get(obj.ID)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(got.Comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(got.Comments))
	}
	if got.Comments[0].Body != "first" || got.Comments[1].Body != "second" {
		t.Fatalf("unexpected comment order: %+v", got.Comments)
	}
}

func TestThreadListEnumeratesObjects(t *testing.T) {
	clock := cob.NewMockClock()
	backing := cob.NewMemBackingStore(clock)
	resource, _ := cob.NewContentID([]byte("project-e"))
	signer, err := cob.NewLocalSigner()
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	authorized := func(cob.NodeId) bool { return true }
	store := cob.NewStore[thread.Thread](backing, resource, thread.Projector, authorized, clock)

	if _, err := store.Create("a", thread.NewCommentOp("a1"), signer); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if _, err := store.Create("b", thread.NewCommentOp("b1"), signer); err != nil {
		t.Fatalf("create b: %v", err)
	}

	listed, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 listed threads, got %d", len(listed))
	}
}
