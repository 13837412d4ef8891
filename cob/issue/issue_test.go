package issue_test

import (
	"testing"

	"collabnode/cob"
	"collabnode/cob/issue"
)

func newSigner(t *testing.T) *cob.LocalSigner {
	t.Helper()
	s, err := cob.NewLocalSigner()
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return s
}

func TestIssueOpenCommentClose(t *testing.T) {
	clock := cob.NewMockClock()
	backing := cob.NewMemBackingStore(clock)
	resource, err := cob.NewContentID([]byte("project-a"))
	if err != nil {
		t.Fatalf("resource id: %v", err)
	}
	signer := newSigner(t)
	authorized := func(cob.NodeId) bool { return true }

	store := cob.NewStore[issue.Issue](backing, resource, issue.Projector, authorized, clock)

	obj, err := store.Create("open issue", issue.NewOpenOp("bug", "it crashes"), signer)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	obj, err = store.Update(obj.ID, "comment", issue.NewCommentOp("can confirm"), signer)
	if err != nil {
		t.Fatalf("update (comment): %v", err)
	}

	obj, err = store.Update(obj.ID, "close", issue.NewCloseOp(), signer)
	if err != nil {
		t.Fatalf("update (close): %v", err)
	}

	got, ok, err := store.Get(obj.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatalf("expected issue to be found")
	}
	if got.Title != "bug" {
		t.Fatalf("title = %q, want %q", got.Title, "bug")
	}
	if got.Status() != issue.StatusClosed {
		t.Fatalf("status = %v, want closed", got.Status())
	}
	if len(got.Comments) != 1 || got.Comments[0].Body != "can confirm" {
		t.Fatalf("unexpected comments: %+v", got.Comments)
	}
}

func TestIssueReopen(t *testing.T) {
	clock := cob.NewMockClock()
	backing := cob.NewMemBackingStore(clock)
	resource, _ := cob.NewContentID([]byte("project-b"))
	signer := newSigner(t)
	authorized := func(cob.NodeId) bool { return true }
	store := cob.NewStore[issue.Issue](backing, resource, issue.Projector, authorized, clock)

	obj, err := store.Create("open", issue.NewOpenOp("t", "b"), signer)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	obj, err = store.Update(obj.ID, "close", issue.NewCloseOp(), signer)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	obj, err = store.Update(obj.ID, "reopen", issue.NewReopenOp(), signer)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok, err := store.Get(obj.ID)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Status() != issue.StatusOpen {
		t.Fatalf("status = %v, want open", got.Status())
	}
}
