package node_test

import (
	"testing"

	"collabnode/cob"
	"collabnode/node"
)

func TestAddressBookPeerNeverOverwritesDurableSource(t *testing.T) {
	book, err := node.NewAddressBook(16)
	if err != nil {
		t.Fatalf("new address book: %v", err)
	}
	now := cob.NewPhysical(100)

	book.Insert("10.0.0.1:8776", node.SourceDns, now)
	book.Insert("10.0.0.1:8776", node.SourcePeer, now)

	all := book.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(all))
	}
	if all[0].Source != node.SourceDns {
		t.Fatalf("source = %v, want SourceDns (unaltered by Peer insert)", all[0].Source)
	}
}

func TestAddressBookDurableOverwritesPeer(t *testing.T) {
	book, err := node.NewAddressBook(16)
	if err != nil {
		t.Fatalf("new address book: %v", err)
	}
	now := cob.NewPhysical(100)

	book.Insert("10.0.0.2:8776", node.SourcePeer, now)
	book.Insert("10.0.0.2:8776", node.SourceImported, now)

	all := book.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(all))
	}
	if all[0].Source != node.SourceImported {
		t.Fatalf("source = %v, want SourceImported", all[0].Source)
	}
}

func TestAddressBookBoundsPeerEntries(t *testing.T) {
	book, err := node.NewAddressBook(2)
	if err != nil {
		t.Fatalf("new address book: %v", err)
	}
	now := cob.NewPhysical(0)
	book.Insert("10.0.0.1:1", node.SourcePeer, now)
	book.Insert("10.0.0.2:1", node.SourcePeer, now)
	book.Insert("10.0.0.3:1", node.SourcePeer, now)

	if book.Len() > 2 {
		t.Fatalf("expected at most 2 peer entries retained, got %d", book.Len())
	}
}
