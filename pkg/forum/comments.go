package forum

import (
	"fmt"

	"forumdb/pkg/models"
	"forumdb/pkg/store/keys"
	"forumdb/pkg/store/pagination"
	"forumdb/pkg/store/records"
)

// AddComment appends a comment to pid under the next per-post cid and bumps
// the post to now on the timeline, keeping its visibility. A bump that lost
// a race to a newer one leaves the post where it is.
func (f *Forum) AddComment(uid, pid uint32, content string, replyTo uint32) (*models.Comment, error) {
	u, err := f.GetUser(uid)
	if err != nil {
		return nil, err
	}
	if !u.Role.CanPost() {
		return nil, fmt.Errorf("%w: uid %d may not comment", ErrForbidden, uid)
	}
	p, err := f.GetPost(pid)
	if err != nil {
		return nil, err
	}
	if p.Status.Locked() {
		return nil, fmt.Errorf("%w: post %d is %s", ErrForbidden, pid, p.Status)
	}

	cid, err := f.counters.Incr(f.namespace(NsPostCommentsCount), keys.EncodeU32(pid))
	if err != nil {
		return nil, err
	}
	now := f.now().Unix()
	c := &models.Comment{
		CID:       cid,
		PID:       pid,
		UID:       uid,
		ReplyTo:   replyTo,
		Content:   content,
		CreatedAt: now,
	}

	b := f.store.NewBatch()
	defer b.Close()
	if err := records.PutOne(b, f.namespace(NsPostComments), keys.Pair(pid, cid), c); err != nil {
		return nil, err
	}
	if err := b.Put(f.namespace(NsUserComments), keys.Triple(uid, pid, cid), nil); err != nil {
		return nil, err
	}
	_, release, err := f.timeline.StageRelocate(b, p.IID, pid, uint64(now))
	if err != nil {
		return nil, err
	}
	defer release()
	if err := b.Commit(); err != nil {
		return nil, err
	}
	return c, nil
}

func (f *Forum) GetComment(pid, cid uint32) (*models.Comment, error) {
	c, err := records.GetOneByKey[models.Comment](f.namespace(NsPostComments), keys.Pair(pid, cid))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// HideComment is a moderator action; the comment stays in place so cids
// remain dense.
func (f *Forum) HideComment(uid, pid, cid uint32, hidden bool) error {
	p, err := f.GetPost(pid)
	if err != nil {
		return err
	}
	if err := f.canModerate(uid, p.IID); err != nil {
		return err
	}
	unlock := f.edits.Lock(NsPostComments, keys.Pair(pid, cid))
	defer unlock()
	c, err := f.GetComment(pid, cid)
	if err != nil {
		return err
	}
	c.Hidden = hidden
	return records.SetOneByKey(f.namespace(NsPostComments), keys.Pair(pid, cid), c)
}

// Comments pages through the comments of pid by cid.
func (f *Forum) Comments(pid uint32, page pagination.Page) ([]models.Comment, error) {
	total, err := f.counters.Get(f.namespace(NsPostCommentsCount), keys.EncodeU32(pid))
	if err != nil {
		return nil, err
	}
	return records.GetRange[models.Comment](f.namespace(NsPostComments), total, page, func(cid uint32) []byte {
		return keys.Pair(pid, cid)
	})
}

func (f *Forum) CommentCount(pid uint32) (uint32, error) {
	return f.counters.Get(f.namespace(NsPostCommentsCount), keys.EncodeU32(pid))
}

// UserComments returns (pid, cid) pairs commented by uid, oldest first
// unless the page is descending.
func (f *Forum) UserComments(uid uint32, page *pagination.Page) ([]keys.PairParts, error) {
	prefix := keys.EncodeU32(uid)
	it, err := f.namespace(NsUserComments).ScanPrefix(prefix, page != nil && page.Desc)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	skip, stop := 0, -1
	if page != nil {
		skip, stop = page.Window()
	}
	var out []keys.PairParts
	for pos := 0; it.Next(); pos++ {
		if stop >= 0 && pos >= stop {
			break
		}
		if pos < skip {
			continue
		}
		t, err := keys.ParseTriple(it.Key())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", NsUserComments, err)
		}
		out = append(out, keys.PairParts{Owner: t.Second, ID: t.Third})
	}
	return out, it.Err()
}
