// Package issue provides a concrete collaborative-object kind: a discussion
// thread with a title, body and an open/closed status, folded from an
// evaluated change history.
package issue

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"collabnode/cob"
)

// TypeName scopes every issue change under this collaborative-object kind.
const TypeName cob.TypeName = "collabnode.issue"

// Status is the lifecycle state of an issue.
type Status uint8

const (
	StatusOpen Status = iota
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// packedStatus combines a monotonic generation counter with a Status so the
// two fold through a Max join-semilattice. The generation counts status ops
// in the order FromHistory visits them, so the status op that comes last in
// the evaluated history wins.
type packedStatus uint64

func packStatus(gen uint64, s Status) packedStatus {
	return packedStatus(gen<<1) | packedStatus(s)
}

func (p packedStatus) status() Status { return Status(p & 1) }

// Comment is a single reply folded from a "comment" op.
type Comment struct {
	Author    cob.NodeId
	Body      string
	Timestamp cob.Physical
}

// Issue is the projected value of an evaluated issue history.
type Issue struct {
	Title    string
	Body     string
	Comments []Comment
	status   cob.Max[packedStatus]
}

// Status returns the issue's current open/closed state.
func (i Issue) Status() Status { return i.status.Get().status() }

// op is the wire shape of one issue operation, CBOR-encoded into a Change's
// Contents entry.
type op struct {
	Kind    string
	Title   string
	Body    string
	Comment string
}

func encode(o op) [][]byte {
	b, err := cbor.Marshal(o)
	if err != nil {
		panic(fmt.Errorf("issue: encode op: %w", err))
	}
	return [][]byte{b}
}

// NewOpenOp starts a new issue with a title and body.
func NewOpenOp(title, body string) [][]byte {
	return encode(op{Kind: "open", Title: title, Body: body})
}

// NewCommentOp appends a reply.
func NewCommentOp(text string) [][]byte {
	return encode(op{Kind: "comment", Comment: text})
}

// NewCloseOp marks the issue closed.
func NewCloseOp() [][]byte {
	return encode(op{Kind: "close"})
}

// NewReopenOp marks a closed issue open again.
func NewReopenOp() [][]byte {
	return encode(op{Kind: "reopen"})
}

// NewEditOp rewrites the title and body.
func NewEditOp(title, body string) [][]byte {
	return encode(op{Kind: "edit", Title: title, Body: body})
}

// FromHistory folds an evaluated change history into an Issue.
func FromHistory(h *cob.History) (Issue, error) {
	var iss Issue
	var gen uint64
	var status cob.Max[packedStatus]

	var decodeErr error
	h.Iter(func(e cob.Entry) bool {
		for _, raw := range e.Contents {
			var o op
			if err := cbor.Unmarshal(raw, &o); err != nil {
				decodeErr = fmt.Errorf("issue: decode op: %w", err)
				return false
			}
			switch o.Kind {
			case "open":
				iss.Title = o.Title
				iss.Body = o.Body
				status = cob.Merge(status, cob.NewMax(packStatus(gen, StatusOpen)))
				gen++
			case "edit":
				iss.Title = o.Title
				iss.Body = o.Body
			case "comment":
				iss.Comments = append(iss.Comments, Comment{
					Author:    e.Author,
					Body:      o.Comment,
					Timestamp: e.Timestamp,
				})
			case "close":
				status = cob.Merge(status, cob.NewMax(packStatus(gen, StatusClosed)))
				gen++
			case "reopen":
				status = cob.Merge(status, cob.NewMax(packStatus(gen, StatusOpen)))
				gen++
			}
		}
		return true
	})
	if decodeErr != nil {
		return Issue{}, decodeErr
	}
	iss.status = status
	return iss, nil
}

// Projector is the FromHistory pair a cob.Store[Issue] is opened with.
var Projector = cob.FromHistory[Issue]{TypeName: TypeName, FromHistory: FromHistory}
