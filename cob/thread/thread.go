// Package thread provides a concrete collaborative-object kind: a flat,
// append-only discussion with no lifecycle status of its own — the
// simplest possible projection, used to back comments on other objects.
package thread

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"collabnode/cob"
)

// TypeName scopes every thread change under this collaborative-object kind.
const TypeName cob.TypeName = "collabnode.thread"

// Comment is a single message folded from a "comment" op.
type Comment struct {
	Author    cob.NodeId
	Body      string
	Timestamp cob.Physical
}

// Thread is the projected value of an evaluated thread history.
type Thread struct {
	Comments []Comment
}

type op struct {
	Kind    string
	Comment string
}

func encode(o op) [][]byte {
	b, err := cbor.Marshal(o)
	if err != nil {
		panic(fmt.Errorf("thread: encode op: %w", err))
	}
	return [][]byte{b}
}

// NewCommentOp appends a message to the thread.
func NewCommentOp(text string) [][]byte {
	return encode(op{Kind: "comment", Comment: text})
}

// FromHistory folds an evaluated change history into a Thread.
func FromHistory(h *cob.History) (Thread, error) {
	var th Thread
	var decodeErr error
	h.Iter(func(e cob.Entry) bool {
		for _, raw := range e.Contents {
			var o op
			if err := cbor.Unmarshal(raw, &o); err != nil {
				decodeErr = fmt.Errorf("thread: decode op: %w", err)
				return false
			}
			if o.Kind == "comment" {
				th.Comments = append(th.Comments, Comment{
					Author:    e.Author,
					Body:      o.Comment,
					Timestamp: e.Timestamp,
				})
			}
		}
		return true
	})
	if decodeErr != nil {
		return Thread{}, decodeErr
	}
	return th, nil
}

// Projector is the FromHistory pair a cob.Store[Thread] is opened with.
var Projector = cob.FromHistory[Thread]{TypeName: TypeName, FromHistory: FromHistory}
