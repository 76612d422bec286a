package forum

import (
	"fmt"

	"forumdb/pkg/store/db"
	"forumdb/pkg/store/keys"
)

// Votes is the tally of one post or comment as seen by one viewer.
type Votes struct {
	Up        int  `json:"upvotes"`
	Down      int  `json:"downvotes"`
	Upvoted   bool `json:"is_upvoted"`
	Downvoted bool `json:"is_downvoted"`
}

// toggleVote flips key in set. Setting a vote clears the opposite one in the
// same batch, so a voter is never counted on both sides. Both directions
// share one lock per key.
func (f *Forum) toggleVote(set, opposite *db.Namespace, key []byte) (bool, error) {
	unlock := f.edits.Lock("votes", key)
	defer unlock()

	had, err := f.idx.Has(set, key)
	if err != nil {
		return false, err
	}
	b := f.store.NewBatch()
	defer b.Close()
	if had {
		if err := b.Delete(set, key); err != nil {
			return false, err
		}
	} else {
		if err := b.Put(set, key, nil); err != nil {
			return false, err
		}
		if err := b.Delete(opposite, key); err != nil {
			return false, err
		}
	}
	return !had, b.Commit()
}

func (f *Forum) canVote(uid uint32) error {
	u, err := f.GetUser(uid)
	if err != nil {
		return err
	}
	if !u.Role.CanPost() {
		return fmt.Errorf("%w: uid %d may not vote", ErrForbidden, uid)
	}
	return nil
}

func (f *Forum) votePost(uid, pid uint32, set, opposite string) (bool, error) {
	if err := f.canVote(uid); err != nil {
		return false, err
	}
	if _, err := f.GetPost(pid); err != nil {
		return false, err
	}
	return f.toggleVote(f.namespace(set), f.namespace(opposite), keys.Pair(pid, uid))
}

func (f *Forum) voteComment(uid, pid, cid uint32, set, opposite string) (bool, error) {
	if err := f.canVote(uid); err != nil {
		return false, err
	}
	if _, err := f.GetComment(pid, cid); err != nil {
		return false, err
	}
	return f.toggleVote(f.namespace(set), f.namespace(opposite), keys.Triple(pid, cid, uid))
}

// UpvotePost toggles uid's upvote on pid and reports whether it is now set.
func (f *Forum) UpvotePost(uid, pid uint32) (bool, error) {
	return f.votePost(uid, pid, NsPostUpvotes, NsPostDownvotes)
}

func (f *Forum) DownvotePost(uid, pid uint32) (bool, error) {
	return f.votePost(uid, pid, NsPostDownvotes, NsPostUpvotes)
}

func (f *Forum) UpvoteComment(uid, pid, cid uint32) (bool, error) {
	return f.voteComment(uid, pid, cid, NsCommentUpvotes, NsCommentDownvotes)
}

func (f *Forum) DownvoteComment(uid, pid, cid uint32) (bool, error) {
	return f.voteComment(uid, pid, cid, NsCommentDownvotes, NsCommentUpvotes)
}

// tally counts the votes under prefix and checks viewer's own; viewer 0 is
// anonymous.
func (f *Forum) tally(up, down *db.Namespace, prefix []byte, viewer uint32) (Votes, error) {
	var v Votes
	var err error
	if v.Up, err = f.idx.CountByPrefix(up, prefix); err != nil {
		return Votes{}, err
	}
	if v.Down, err = f.idx.CountByPrefix(down, prefix); err != nil {
		return Votes{}, err
	}
	if viewer == 0 {
		return v, nil
	}
	key := keys.Concat(prefix, keys.EncodeU32(viewer))
	if v.Upvoted, err = f.idx.Has(up, key); err != nil {
		return Votes{}, err
	}
	if v.Downvoted, err = f.idx.Has(down, key); err != nil {
		return Votes{}, err
	}
	return v, nil
}

func (f *Forum) PostVotes(pid, viewer uint32) (Votes, error) {
	return f.tally(f.namespace(NsPostUpvotes), f.namespace(NsPostDownvotes), keys.EncodeU32(pid), viewer)
}

func (f *Forum) CommentVotes(pid, cid, viewer uint32) (Votes, error) {
	return f.tally(f.namespace(NsCommentUpvotes), f.namespace(NsCommentDownvotes), keys.Pair(pid, cid), viewer)
}
