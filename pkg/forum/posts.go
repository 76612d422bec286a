package forum

import (
	"fmt"

	"forumdb/pkg/logger"
	"forumdb/pkg/models"
	"forumdb/pkg/store/db"
	"forumdb/pkg/store/index"
	"forumdb/pkg/store/keys"
	"forumdb/pkg/store/pagination"
	"forumdb/pkg/store/records"
)

type PostInput struct {
	IID     uint32
	Title   string
	Content string
	Tags    []string
}

// userPostValue is iid followed by the inn type byte.
func userPostValue(iid uint32, t models.InnType) []byte {
	return append(keys.EncodeU32(iid), t.Byte())
}

// queueUserPostsType rewrites the inn type copied into user_posts for every
// post of iid. The caller holds the inn's record lock, so no post of iid is
// being created meanwhile.
func (f *Forum) queueUserPostsType(b *db.Batch, iid uint32, t models.InnType) error {
	pids, err := f.idx.IDsByPrefix(f.namespace(NsInnPosts), keys.EncodeU32(iid), nil)
	if err != nil {
		return err
	}
	for _, pid := range pids {
		p, err := f.GetPost(pid)
		if err != nil {
			if records.IsNotFound(err) {
				continue
			}
			return err
		}
		if err := b.Put(f.namespace(NsUserPosts), keys.Pair(p.UID, pid), userPostValue(iid, t)); err != nil {
			return err
		}
	}
	return nil
}

// CreatePost stores the post and every index entry for it in one batch,
// including its place on the timeline. It holds the inn's record lock so
// the inn type it copies cannot change before the batch commits.
func (f *Forum) CreatePost(uid uint32, in PostInput) (*models.Post, error) {
	u, err := f.GetUser(uid)
	if err != nil {
		return nil, err
	}
	if !u.Role.CanPost() {
		return nil, fmt.Errorf("%w: uid %d may not post", ErrForbidden, uid)
	}
	unlock := f.lockRecord(NsInns, in.IID)
	defer unlock()
	inn, err := f.GetInn(in.IID)
	if err != nil {
		return nil, err
	}
	tags := normalizeTags(in.Tags, maxTags)
	for _, t := range tags {
		if _, err := keys.TagPrefix(t); err != nil {
			return nil, err
		}
	}

	pid, err := f.nextID(postsCount)
	if err != nil {
		return nil, err
	}
	now := f.now().Unix()
	p := &models.Post{
		PID:       pid,
		UID:       uid,
		IID:       in.IID,
		Title:     in.Title,
		Tags:      tags,
		Content:   in.Content,
		CreatedAt: now,
		Status:    models.PostNormal,
	}

	b := f.store.NewBatch()
	defer b.Close()
	if err := records.PutOne(b, f.namespace(NsPosts), keys.EncodeU32(pid), p); err != nil {
		return nil, err
	}
	if err := b.Put(f.namespace(NsInnPosts), keys.Pair(in.IID, pid), nil); err != nil {
		return nil, err
	}
	if err := b.Put(f.namespace(NsUserPosts), keys.Pair(uid, pid), userPostValue(in.IID, inn.Type)); err != nil {
		return nil, err
	}
	if err := f.idx.QueueReindexTags(b, f.namespace(NsTags), pid, nil, tags); err != nil {
		return nil, err
	}
	release, err := f.timeline.StagePut(b, in.IID, pid, uint64(now), []byte{inn.Type.Byte()})
	if err != nil {
		return nil, err
	}
	defer release()
	if err := b.Commit(); err != nil {
		return nil, err
	}
	logger.Debug("post_created", "pid", pid, "iid", in.IID, "uid", uid)
	return p, nil
}

func (f *Forum) GetPost(pid uint32) (*models.Post, error) {
	p, err := records.GetOne[models.Post](f.namespace(NsPosts), pid)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// EditPost lets the author, or a moderator of the inn, rewrite a post. Tags
// are re-indexed by difference and the post moves to the top of the
// timeline in the same batch, keeping its payload.
func (f *Forum) EditPost(uid, pid uint32, in PostInput) (*models.Post, error) {
	unlock := f.lockRecord(NsPosts, pid)
	defer unlock()

	p, err := f.GetPost(pid)
	if err != nil {
		return nil, err
	}
	if p.UID != uid {
		if err := f.canModerate(uid, p.IID); err != nil {
			return nil, err
		}
	} else if p.Status == models.PostLockedByMod || p.Status == models.PostHiddenByMod {
		return nil, fmt.Errorf("%w: post %d is %s", ErrForbidden, pid, p.Status)
	}
	oldTags := p.Tags
	p.Title = in.Title
	p.Content = in.Content
	p.Tags = normalizeTags(in.Tags, maxTags)

	b := f.store.NewBatch()
	defer b.Close()
	if err := records.PutOne(b, f.namespace(NsPosts), keys.EncodeU32(pid), p); err != nil {
		return nil, err
	}
	if err := f.idx.QueueReindexTags(b, f.namespace(NsTags), pid, oldTags, p.Tags); err != nil {
		return nil, err
	}
	_, release, err := f.timeline.StageRelocate(b, p.IID, pid, uint64(f.now().Unix()))
	if err != nil {
		return nil, err
	}
	defer release()
	if err := b.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

// SetPostStatus locks or hides a post. Moderator statuses need a moderator;
// user statuses need the author.
func (f *Forum) SetPostStatus(uid, pid uint32, status models.PostStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: post status %d", models.ErrUnknownEnum, status)
	}
	unlock := f.lockRecord(NsPosts, pid)
	defer unlock()

	p, err := f.GetPost(pid)
	if err != nil {
		return err
	}
	switch status {
	case models.PostLockedByMod, models.PostHiddenByMod:
		if err := f.canModerate(uid, p.IID); err != nil {
			return err
		}
	default:
		if p.UID != uid {
			return fmt.Errorf("%w: uid %d is not the author of post %d", ErrForbidden, uid, pid)
		}
		if p.Status == models.PostLockedByMod || p.Status == models.PostHiddenByMod {
			return fmt.Errorf("%w: post %d is %s", ErrForbidden, pid, p.Status)
		}
	}
	p.Status = status
	return records.SetOne(f.namespace(NsPosts), pid, p)
}

func (f *Forum) ListPosts(page pagination.Page) ([]models.Post, error) {
	return records.GetBatch[models.Post](f.namespace(NsPosts), f.namespace(NsDefault), []byte(postsCount), page)
}

// PostsByTag lists posts tagged with exactly tag.
func (f *Forum) PostsByTag(tag string, page *pagination.Page) ([]models.Post, error) {
	ids, err := f.idx.IDsByTag(f.namespace(NsTags), tag, page)
	if err != nil {
		return nil, err
	}
	return loadIDs[models.Post](f.namespace(NsPosts), ids)
}

func (f *Forum) InnPosts(iid uint32, page *pagination.Page) ([]uint32, error) {
	return f.idx.IDsByPrefix(f.namespace(NsInnPosts), keys.EncodeU32(iid), page)
}

func (f *Forum) UserPosts(uid uint32, page *pagination.Page) ([]uint32, error) {
	return f.idx.IDsByPrefix(f.namespace(NsUserPosts), keys.EncodeU32(uid), page)
}

// Timeline walks posts of every inn by last activity.
func (f *Forum) Timeline(page pagination.Page) ([]index.TimelineEntry, error) {
	return f.timeline.Scan(page)
}

// InnsTimeline is Timeline restricted to the given inns, e.g. the ones a
// user joined.
func (f *Forum) InnsTimeline(iids []uint32, page pagination.Page) ([]index.TimelineEntry, error) {
	return f.timeline.ForOwners(iids, page)
}

// IncrPageview bumps and returns the view count of pid.
func (f *Forum) IncrPageview(pid uint32) (uint32, error) {
	return f.counters.Incr(f.namespace(NsPostPageviews), keys.EncodeU32(pid))
}

func (f *Forum) Pageviews(pid uint32) (uint32, error) {
	return f.counters.Get(f.namespace(NsPostPageviews), keys.EncodeU32(pid))
}
