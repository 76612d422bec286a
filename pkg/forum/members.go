package forum

import (
	"fmt"

	"forumdb/pkg/logger"
	"forumdb/pkg/models"
	"forumdb/pkg/store/db"
	"forumdb/pkg/store/index"
	"forumdb/pkg/store/keys"
	"forumdb/pkg/store/pagination"
)

// queueMembership records uid's role in iid: inn_users always, user_inns
// only for member roles, and no pending application.
func (f *Forum) queueMembership(b *db.Batch, iid, uid uint32, role models.InnRole) error {
	if err := b.Put(f.namespace(NsInnUsers), keys.Pair(iid, uid), []byte{role.Byte()}); err != nil {
		return err
	}
	if err := b.Delete(f.namespace(NsInnApply), keys.Pair(iid, uid)); err != nil {
		return err
	}
	if role.Member() {
		return b.Put(f.namespace(NsUserInns), keys.Pair(uid, iid), nil)
	}
	return b.Delete(f.namespace(NsUserInns), keys.Pair(uid, iid))
}

// InnRoleOf returns uid's role in iid; ok is false when uid never joined.
func (f *Forum) InnRoleOf(iid, uid uint32) (role models.InnRole, ok bool, err error) {
	v, err := f.namespace(NsInnUsers).Get(keys.Pair(iid, uid))
	if err != nil {
		if db.IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if len(v) != 1 {
		return 0, false, fmt.Errorf("%s: role has %d bytes: %w", NsInnUsers, len(v), keys.ErrMalformedKey)
	}
	role, err = models.InnRoleFromByte(v[0])
	if err != nil {
		return 0, false, err
	}
	return role, true, nil
}

// JoinInn adds uid to iid. Public inns admit at once, as a fellow while
// early-bird seats remain and as an intern after that; other open inns queue
// an application. Joining again returns the current role unchanged.
func (f *Forum) JoinInn(uid, iid uint32) (models.InnRole, error) {
	if _, err := f.GetUser(uid); err != nil {
		return 0, err
	}
	unlock := f.lockRecord(NsInnUsers, iid)
	defer unlock()

	inn, err := f.GetInn(iid)
	if err != nil {
		return 0, err
	}
	if role, ok, err := f.InnRoleOf(iid, uid); err != nil || ok {
		return role, err
	}
	if inn.Type == models.InnClosed {
		return 0, fmt.Errorf("%w: inn %d is closed", ErrForbidden, iid)
	}

	b := f.store.NewBatch()
	defer b.Close()
	role := models.InnRolePending
	if inn.Type == models.InnPublic {
		members, err := f.idx.CountByPrefix(f.namespace(NsInnUsers), keys.EncodeU32(iid))
		if err != nil {
			return 0, err
		}
		role = models.InnRoleIntern
		if inn.EarlyBirds > 0 && members <= int(inn.EarlyBirds) {
			role = models.InnRoleFellow
		}
		if err := f.queueMembership(b, iid, uid, role); err != nil {
			return 0, err
		}
	} else {
		if err := b.Put(f.namespace(NsInnUsers), keys.Pair(iid, uid), []byte{role.Byte()}); err != nil {
			return 0, err
		}
		if err := b.Put(f.namespace(NsInnApply), keys.Pair(iid, uid), nil); err != nil {
			return 0, err
		}
	}
	if err := b.Commit(); err != nil {
		return 0, err
	}
	logger.Debug("inn_joined", "iid", iid, "uid", uid, "role", role.String())
	return role, nil
}

// LeaveInn drops every trace of uid's membership or application.
// Moderators stay moderators until UpdateInn removes them.
func (f *Forum) LeaveInn(uid, iid uint32) error {
	unlock := f.lockRecord(NsInnUsers, iid)
	defer unlock()

	b := f.store.NewBatch()
	defer b.Close()
	if err := b.Delete(f.namespace(NsInnUsers), keys.Pair(iid, uid)); err != nil {
		return err
	}
	if err := b.Delete(f.namespace(NsInnApply), keys.Pair(iid, uid)); err != nil {
		return err
	}
	if err := b.Delete(f.namespace(NsUserInns), keys.Pair(uid, iid)); err != nil {
		return err
	}
	return b.Commit()
}

// SetInnRole lets a moderator decide an application or change a member's
// standing. Mod and super roles follow the inn's moderator list and cannot
// be handed out here.
func (f *Forum) SetInnRole(actor, iid, uid uint32, role models.InnRole) error {
	if !role.Valid() {
		return fmt.Errorf("%w: inn role %d", models.ErrUnknownEnum, role)
	}
	if role >= models.InnRoleMod {
		return fmt.Errorf("%w: %s is granted through the moderator list", ErrForbidden, role)
	}
	if err := f.canModerate(actor, iid); err != nil {
		return err
	}
	unlock := f.lockRecord(NsInnUsers, iid)
	defer unlock()

	cur, ok, err := f.InnRoleOf(iid, uid)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: uid %d has not joined inn %d", ErrForbidden, uid, iid)
	}
	if cur >= models.InnRoleMod {
		return fmt.Errorf("%w: uid %d is %s of inn %d", ErrForbidden, uid, cur, iid)
	}

	b := f.store.NewBatch()
	defer b.Close()
	if err := f.queueMembership(b, iid, uid, role); err != nil {
		return err
	}
	return b.Commit()
}

// UserInns lists the iids uid is a member of.
func (f *Forum) UserInns(uid uint32, page *pagination.Page) ([]uint32, error) {
	return f.idx.IDsByPrefix(f.namespace(NsUserInns), keys.EncodeU32(uid), page)
}

// InnMembers lists every uid with a role in iid, pending ones included.
func (f *Forum) InnMembers(iid uint32, page *pagination.Page) ([]uint32, error) {
	return f.idx.IDsByPrefix(f.namespace(NsInnUsers), keys.EncodeU32(iid), page)
}

func (f *Forum) InnApplicants(iid uint32, page *pagination.Page) ([]uint32, error) {
	return f.idx.IDsByPrefix(f.namespace(NsInnApply), keys.EncodeU32(iid), page)
}

func (f *Forum) MemberCount(iid uint32) (int, error) {
	return f.idx.CountByPrefix(f.namespace(NsInnUsers), keys.EncodeU32(iid))
}

// JoinedTimeline is the timeline of the inns uid is a member of.
func (f *Forum) JoinedTimeline(uid uint32, page pagination.Page) ([]index.TimelineEntry, error) {
	iids, err := f.UserInns(uid, nil)
	if err != nil {
		return nil, err
	}
	if len(iids) == 0 {
		return nil, nil
	}
	return f.InnsTimeline(iids, page)
}
