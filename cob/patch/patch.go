// Package patch provides a concrete collaborative-object kind modeling a
// proposed change: a title, description, a base/head revision pair, review
// comments, and a lifecycle status.
package patch

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"collabnode/cob"
)

// TypeName scopes every patch change under this collaborative-object kind.
const TypeName cob.TypeName = "collabnode.patch"

// Status is the lifecycle state of a patch.
type Status uint8

const (
	StatusDraft Status = iota
	StatusOpen
	StatusArchived
	StatusMerged
)

func (s Status) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusOpen:
		return "open"
	case StatusArchived:
		return "archived"
	case StatusMerged:
		return "merged"
	default:
		return "unknown"
	}
}

type packedStatus uint64

func packStatus(gen uint64, s Status) packedStatus {
	return packedStatus(gen<<8) | packedStatus(s)
}

func (p packedStatus) status() Status { return Status(p & 0xff) }

// Review is a single review comment folded from a "review" op.
type Review struct {
	Author    cob.NodeId
	Body      string
	Timestamp cob.Physical
}

// Patch is the projected value of an evaluated patch history.
type Patch struct {
	Title       string
	Description string
	Base        string
	Head        string
	Reviews     []Review
	status      cob.Max[packedStatus]
}

// Status returns the patch's current lifecycle state.
func (p Patch) Status() Status { return p.status.Get().status() }

type op struct {
	Kind        string
	Title       string
	Description string
	Base        string
	Head        string
	Review      string
}

func encode(o op) [][]byte {
	b, err := cbor.Marshal(o)
	if err != nil {
		panic(fmt.Errorf("patch: encode op: %w", err))
	}
	return [][]byte{b}
}

// NewOpenOp proposes a new patch from base to head.
func NewOpenOp(title, description, base, head string) [][]byte {
	return encode(op{Kind: "open", Title: title, Description: description, Base: base, Head: head})
}

// NewUpdateOp moves the patch's head to a new revision.
func NewUpdateOp(head string) [][]byte {
	return encode(op{Kind: "update", Head: head})
}

// NewReviewOp appends a review comment.
func NewReviewOp(text string) [][]byte {
	return encode(op{Kind: "review", Review: text})
}

// NewArchiveOp marks the patch archived.
func NewArchiveOp() [][]byte { return encode(op{Kind: "archive"}) }

// NewReopenOp reopens an archived patch.
func NewReopenOp() [][]byte { return encode(op{Kind: "reopen"}) }

// NewMergeOp marks the patch merged.
func NewMergeOp() [][]byte { return encode(op{Kind: "merge"}) }

// FromHistory folds an evaluated change history into a Patch.
func FromHistory(h *cob.History) (Patch, error) {
	var p Patch
	var gen uint64
	var status cob.Max[packedStatus]

	var decodeErr error
	h.Iter(func(e cob.Entry) bool {
		for _, raw := range e.Contents {
			var o op
			if err := cbor.Unmarshal(raw, &o); err != nil {
				decodeErr = fmt.Errorf("patch: decode op: %w", err)
				return false
			}
			switch o.Kind {
			case "open":
				p.Title = o.Title
				p.Description = o.Description
				p.Base = o.Base
				p.Head = o.Head
				status = cob.Merge(status, cob.NewMax(packStatus(gen, StatusOpen)))
				gen++
			case "update":
				p.Head = o.Head
			case "review":
				p.Reviews = append(p.Reviews, Review{
					Author:    e.Author,
					Body:      o.Review,
					Timestamp: e.Timestamp,
				})
			case "archive":
				status = cob.Merge(status, cob.NewMax(packStatus(gen, StatusArchived)))
				gen++
			case "reopen":
				status = cob.Merge(status, cob.NewMax(packStatus(gen, StatusOpen)))
				gen++
			case "merge":
				status = cob.Merge(status, cob.NewMax(packStatus(gen, StatusMerged)))
				gen++
			}
		}
		return true
	})
	if decodeErr != nil {
		return Patch{}, decodeErr
	}
	p.status = status
	return p, nil
}

// Projector is the FromHistory pair a cob.Store[Patch] is opened with.
var Projector = cob.FromHistory[Patch]{TypeName: TypeName, FromHistory: FromHistory}
