package forum

import (
	"fmt"

	"forumdb/pkg/logger"
	"forumdb/pkg/models"
	"forumdb/pkg/store/keys"
	"forumdb/pkg/store/pagination"
	"forumdb/pkg/store/records"
)

// CreateSolo stores a solo, indexes its hashtags and links it to the solo
// it replies to. The per-user listing entry is appended last, once the
// record it points at exists.
func (f *Forum) CreateSolo(uid uint32, content string, vis models.Visibility, replyTo uint32) (*models.Solo, error) {
	if !vis.Valid() {
		return nil, fmt.Errorf("%w: visibility %d", models.ErrUnknownEnum, vis)
	}
	u, err := f.GetUser(uid)
	if err != nil {
		return nil, err
	}
	if !u.Role.CanPost() {
		return nil, fmt.Errorf("%w: uid %d may not post", ErrForbidden, uid)
	}

	var unlockParent func()
	var parent models.Solo
	if replyTo != 0 {
		unlockParent = f.lockRecord(NsSolos, replyTo)
		defer unlockParent()
		parent, err = records.GetOne[models.Solo](f.namespace(NsSolos), replyTo)
		if err != nil {
			return nil, err
		}
	}

	sid, err := f.nextID(solosCount)
	if err != nil {
		return nil, err
	}
	s := &models.Solo{
		SID:        sid,
		UID:        uid,
		Visibility: vis,
		Content:    content,
		Hashtags:   ExtractElements(content, maxHashtags, '#'),
		CreatedAt:  f.now().Unix(),
		ReplyTo:    replyTo,
	}

	b := f.store.NewBatch()
	defer b.Close()
	if err := records.PutOne(b, f.namespace(NsSolos), keys.EncodeU32(sid), s); err != nil {
		return nil, err
	}
	if err := f.idx.QueueReindexTags(b, f.namespace(NsHashtags), sid, nil, s.Hashtags); err != nil {
		return nil, err
	}
	if replyTo != 0 {
		parent.Replies = append(parent.Replies, sid)
		if err := records.PutOne(b, f.namespace(NsSolos), keys.EncodeU32(replyTo), &parent); err != nil {
			return nil, err
		}
	}
	if err := b.Commit(); err != nil {
		return nil, err
	}

	if _, err := f.idx.SetIndex(f.namespace(NsUserSolosCount), uid, f.namespace(NsUserSolos), keys.EncodeU32(sid)); err != nil {
		logger.Error("solo_index_failed", "sid", sid, "uid", uid, "error", err)
		return nil, err
	}
	return s, nil
}

func (f *Forum) GetSolo(sid uint32) (*models.Solo, error) {
	s, err := records.GetOne[models.Solo](f.namespace(NsSolos), sid)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UserSolos lists uid's solos in posting order.
func (f *Forum) UserSolos(uid uint32, page *pagination.Page) ([]models.Solo, error) {
	vals, err := f.idx.ValuesByPrefix(f.namespace(NsUserSolos), keys.EncodeU32(uid), page)
	if err != nil {
		return nil, err
	}
	ids := make([]uint32, 0, len(vals))
	for _, v := range vals {
		sid, err := keys.DecodeU32(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", NsUserSolos, err)
		}
		ids = append(ids, sid)
	}
	return loadIDs[models.Solo](f.namespace(NsSolos), ids)
}

// SolosByHashtag lists solos carrying exactly hashtag.
func (f *Forum) SolosByHashtag(hashtag string, page *pagination.Page) ([]models.Solo, error) {
	ids, err := f.idx.IDsByTag(f.namespace(NsHashtags), hashtag, page)
	if err != nil {
		return nil, err
	}
	return loadIDs[models.Solo](f.namespace(NsSolos), ids)
}

func (f *Forum) ListSolos(page pagination.Page) ([]models.Solo, error) {
	return records.GetBatch[models.Solo](f.namespace(NsSolos), f.namespace(NsDefault), []byte(solosCount), page)
}

// LikeSolo toggles uid's like on sid and reports whether it is now set.
// Both directions of the relation change in one batch.
func (f *Forum) LikeSolo(uid, sid uint32) (bool, error) {
	if err := f.canVote(uid); err != nil {
		return false, err
	}
	if _, err := f.GetSolo(sid); err != nil {
		return false, err
	}
	byUser, bySolo := keys.Pair(uid, sid), keys.Pair(sid, uid)
	unlock := f.edits.Lock(NsSoloUsersLike, bySolo)
	defer unlock()

	liked, err := f.idx.Has(f.namespace(NsSoloUsersLike), bySolo)
	if err != nil {
		return false, err
	}
	b := f.store.NewBatch()
	defer b.Close()
	if liked {
		if err := b.Delete(f.namespace(NsUserSolosLike), byUser); err != nil {
			return false, err
		}
		if err := b.Delete(f.namespace(NsSoloUsersLike), bySolo); err != nil {
			return false, err
		}
	} else {
		if err := b.Put(f.namespace(NsUserSolosLike), byUser, nil); err != nil {
			return false, err
		}
		if err := b.Put(f.namespace(NsSoloUsersLike), bySolo, nil); err != nil {
			return false, err
		}
	}
	return !liked, b.Commit()
}

func (f *Forum) SoloLikes(sid uint32) (int, error) {
	return f.idx.CountByPrefix(f.namespace(NsSoloUsersLike), keys.EncodeU32(sid))
}

// LikedSolos lists the sids uid likes.
func (f *Forum) LikedSolos(uid uint32, page *pagination.Page) ([]uint32, error) {
	return f.idx.IDsByPrefix(f.namespace(NsUserSolosLike), keys.EncodeU32(uid), page)
}
