package forum

import (
	"fmt"
	"slices"

	"forumdb/pkg/logger"
	"forumdb/pkg/models"
	"forumdb/pkg/store/keys"
	"forumdb/pkg/store/pagination"
	"forumdb/pkg/store/records"
)

type InnInput struct {
	Name        string
	About       string
	Description string
	Topics      []string
	Type        models.InnType
	EarlyBirds  uint32

	// Mods replaces the moderator list on update; nil keeps it.
	Mods []uint32
}

// CreateInn stores a new inn with uid as its first moderator and super
// member.
func (f *Forum) CreateInn(uid uint32, in InnInput) (*models.Inn, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: inn type %d", models.ErrUnknownEnum, in.Type)
	}
	u, err := f.GetUser(uid)
	if err != nil {
		return nil, err
	}
	if !u.Role.CanCreateInn() {
		return nil, fmt.Errorf("%w: uid %d may not create inns", ErrForbidden, uid)
	}

	f.names.Lock()
	defer f.names.Unlock()
	norm, err := f.reserveName(NsInnNames, in.Name)
	if err != nil {
		return nil, err
	}
	iid, err := f.nextID(innsCount)
	if err != nil {
		return nil, err
	}
	inn := &models.Inn{
		IID:         iid,
		Name:        in.Name,
		About:       in.About,
		Description: in.Description,
		Topics:      normalizeTags(in.Topics, maxTags),
		Type:        in.Type,
		Mods:        []uint32{uid},
		EarlyBirds:  in.EarlyBirds,
		CreatedAt:   f.now().Unix(),
	}

	b := f.store.NewBatch()
	defer b.Close()
	if err := records.PutOne(b, f.namespace(NsInns), keys.EncodeU32(iid), inn); err != nil {
		return nil, err
	}
	if err := b.Put(f.namespace(NsInnNames), norm, keys.EncodeU32(iid)); err != nil {
		return nil, err
	}
	if err := f.idx.QueueReindexTags(b, f.namespace(NsTopics), iid, nil, inn.Topics); err != nil {
		return nil, err
	}
	if err := f.idx.QueueReindexOwners(b, f.namespace(NsModInns), iid, nil, inn.Mods); err != nil {
		return nil, err
	}
	if err := f.queueMembership(b, iid, uid, models.InnRoleSuper); err != nil {
		return nil, err
	}
	if err := b.Commit(); err != nil {
		return nil, err
	}
	logger.Info("inn_created", "iid", iid, "uid", uid, "inn_type", inn.Type.String())
	return inn, nil
}

func (f *Forum) GetInn(iid uint32) (*models.Inn, error) {
	inn, err := records.GetOne[models.Inn](f.namespace(NsInns), iid)
	if err != nil {
		return nil, err
	}
	return &inn, nil
}

// IsMod reports whether uid moderates iid.
func (f *Forum) IsMod(uid, iid uint32) (bool, error) {
	return f.idx.Has(f.namespace(NsModInns), keys.Pair(uid, iid))
}

func (f *Forum) canModerate(uid, iid uint32) error {
	ok, err := f.IsMod(uid, iid)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if err := f.requireAdmin(uid); err != nil {
		return fmt.Errorf("%w: uid %d does not moderate inn %d", ErrForbidden, uid, iid)
	}
	return nil
}

// UpdateInn rewrites an inn and moves its topic and moderator index entries
// by set difference, all in one batch. A type change is copied into the
// user_posts values of the inn's posts in that batch, and into their
// timeline payloads right after it commits.
func (f *Forum) UpdateInn(uid, iid uint32, in InnInput) (*models.Inn, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: inn type %d", models.ErrUnknownEnum, in.Type)
	}
	if err := f.canModerate(uid, iid); err != nil {
		return nil, err
	}
	unlock := f.lockRecord(NsInns, iid)
	defer unlock()

	inn, err := f.GetInn(iid)
	if err != nil {
		return nil, err
	}
	oldTopics, oldMods, oldType := inn.Topics, inn.Mods, inn.Type

	b := f.store.NewBatch()
	defer b.Close()

	if keys.NormalizeName(in.Name) != keys.NormalizeName(inn.Name) {
		f.names.Lock()
		defer f.names.Unlock()
		norm, err := f.reserveName(NsInnNames, in.Name)
		if err != nil {
			return nil, err
		}
		if err := b.Delete(f.namespace(NsInnNames), []byte(keys.NormalizeName(inn.Name))); err != nil {
			return nil, err
		}
		if err := b.Put(f.namespace(NsInnNames), norm, keys.EncodeU32(iid)); err != nil {
			return nil, err
		}
	}

	inn.Name = in.Name
	inn.About = in.About
	inn.Description = in.Description
	inn.Topics = normalizeTags(in.Topics, maxTags)
	inn.Type = in.Type
	inn.EarlyBirds = in.EarlyBirds
	if in.Mods != nil {
		if len(in.Mods) == 0 {
			return nil, fmt.Errorf("%w: an inn needs at least one moderator", ErrForbidden)
		}
		inn.Mods = slices.Clone(in.Mods)
	}

	if err := records.PutOne(b, f.namespace(NsInns), keys.EncodeU32(iid), inn); err != nil {
		return nil, err
	}
	if err := f.idx.QueueReindexTags(b, f.namespace(NsTopics), iid, oldTopics, inn.Topics); err != nil {
		return nil, err
	}
	if err := f.idx.QueueReindexOwners(b, f.namespace(NsModInns), iid, oldMods, inn.Mods); err != nil {
		return nil, err
	}
	retyped := oldType != inn.Type
	if retyped {
		if err := f.queueUserPostsType(b, iid, inn.Type); err != nil {
			return nil, err
		}
	}
	if err := b.Commit(); err != nil {
		return nil, err
	}
	if retyped {
		n, err := f.timeline.Repayload(iid, []byte{inn.Type.Byte()})
		if err != nil {
			logger.Error("inn_retype_timeline_failed", "iid", iid, "error", err)
			return nil, err
		}
		logger.Info("inn_retyped", "iid", iid, "from", oldType.String(), "to", inn.Type.String(), "posts", n)
	}
	logger.Info("inn_updated", "iid", iid, "uid", uid)
	return inn, nil
}

// InnsByTopic lists inns tagged with exactly topic.
func (f *Forum) InnsByTopic(topic string, page *pagination.Page) ([]models.Inn, error) {
	ids, err := f.idx.IDsByTag(f.namespace(NsTopics), topic, page)
	if err != nil {
		return nil, err
	}
	return loadIDs[models.Inn](f.namespace(NsInns), ids)
}

// InnsModeratedBy returns the iids uid moderates.
func (f *Forum) InnsModeratedBy(uid uint32, page *pagination.Page) ([]uint32, error) {
	return f.idx.IDsByPrefix(f.namespace(NsModInns), keys.EncodeU32(uid), page)
}

func (f *Forum) ListInns(page pagination.Page) ([]models.Inn, error) {
	return records.GetBatch[models.Inn](f.namespace(NsInns), f.namespace(NsDefault), []byte(innsCount), page)
}
