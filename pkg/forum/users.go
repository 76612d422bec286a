package forum

import (
	"fmt"

	"forumdb/pkg/logger"
	"forumdb/pkg/models"
	"forumdb/pkg/store/db"
	"forumdb/pkg/store/keys"
	"forumdb/pkg/store/pagination"
	"forumdb/pkg/store/records"
)

// CreateUser registers a unique username. The first user of a fresh store
// becomes admin.
func (f *Forum) CreateUser(username, passwordHash string) (*models.User, error) {
	f.names.Lock()
	defer f.names.Unlock()

	norm, err := f.reserveName(NsUsernames, username)
	if err != nil {
		return nil, err
	}
	uid, err := f.nextID(usersCount)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		UID:          uid,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    f.now().Unix(),
		Role:         models.RoleStandard,
	}
	if uid == 1 {
		u.Role = models.RoleAdmin
	}

	b := f.store.NewBatch()
	defer b.Close()
	if err := records.PutOne(b, f.namespace(NsUsers), keys.EncodeU32(uid), u); err != nil {
		return nil, err
	}
	if err := b.Put(f.namespace(NsUsernames), norm, keys.EncodeU32(uid)); err != nil {
		return nil, err
	}
	if err := b.Commit(); err != nil {
		return nil, err
	}
	logger.Info("user_created", "uid", uid, "role", u.Role.String())
	return u, nil
}

func (f *Forum) GetUser(uid uint32) (*models.User, error) {
	u, err := records.GetOne[models.User](f.namespace(NsUsers), uid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserByName resolves a username case-insensitively.
func (f *Forum) UserByName(name string) (*models.User, error) {
	v, err := f.namespace(NsUsernames).Get([]byte(keys.NormalizeName(name)))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, fmt.Errorf("user %q: %w", name, records.ErrNotFound)
		}
		return nil, err
	}
	uid, err := keys.DecodeU32(v)
	if err != nil {
		return nil, err
	}
	return f.GetUser(uid)
}

// ListUsers pages through users by uid.
func (f *Forum) ListUsers(page pagination.Page) ([]models.User, error) {
	return records.GetBatch[models.User](f.namespace(NsUsers), f.namespace(NsDefault), []byte(usersCount), page)
}

// SetRole is an admin action; actor must be an admin.
func (f *Forum) SetRole(actor, uid uint32, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: role %d", models.ErrUnknownEnum, role)
	}
	if err := f.requireAdmin(actor); err != nil {
		return err
	}
	unlock := f.lockRecord(NsUsers, uid)
	defer unlock()
	u, err := f.GetUser(uid)
	if err != nil {
		return err
	}
	u.Role = role
	if err := records.SetOne(f.namespace(NsUsers), uid, u); err != nil {
		return err
	}
	logger.Info("user_role_changed", "uid", uid, "role", role.String(), "by", actor)
	return nil
}

func (f *Forum) requireAdmin(uid uint32) error {
	u, err := f.GetUser(uid)
	if err != nil {
		return err
	}
	if u.Role != models.RoleAdmin {
		return fmt.Errorf("%w: uid %d is not admin", ErrForbidden, uid)
	}
	return nil
}

// Follow records uid following target in both directions in one batch.
func (f *Forum) Follow(uid, target uint32) error {
	if uid == target {
		return fmt.Errorf("%w: cannot follow yourself", ErrForbidden)
	}
	if _, err := f.GetUser(target); err != nil {
		return err
	}
	b := f.store.NewBatch()
	defer b.Close()
	if err := b.Put(f.namespace(NsUserFollowing), keys.Pair(uid, target), nil); err != nil {
		return err
	}
	if err := b.Put(f.namespace(NsUserFollowers), keys.Pair(target, uid), nil); err != nil {
		return err
	}
	return b.Commit()
}

func (f *Forum) Unfollow(uid, target uint32) error {
	b := f.store.NewBatch()
	defer b.Close()
	if err := b.Delete(f.namespace(NsUserFollowing), keys.Pair(uid, target)); err != nil {
		return err
	}
	if err := b.Delete(f.namespace(NsUserFollowers), keys.Pair(target, uid)); err != nil {
		return err
	}
	return b.Commit()
}

func (f *Forum) IsFollowing(uid, target uint32) (bool, error) {
	return f.idx.Has(f.namespace(NsUserFollowing), keys.Pair(uid, target))
}

// Following lists the uids uid follows.
func (f *Forum) Following(uid uint32, page *pagination.Page) ([]uint32, error) {
	return f.idx.IDsByPrefix(f.namespace(NsUserFollowing), keys.EncodeU32(uid), page)
}

func (f *Forum) Followers(uid uint32, page *pagination.Page) ([]uint32, error) {
	return f.idx.IDsByPrefix(f.namespace(NsUserFollowers), keys.EncodeU32(uid), page)
}
