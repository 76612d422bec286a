package forum

import (
	"forumdb/pkg/models"
	"forumdb/pkg/store/registry"
)

// RegisterRenderers teaches reg how every forum namespace is laid out.
func RegisterRenderers(reg *registry.Registry) {
	reg.Register(registry.Layout{Key: registry.StringKey, Value: registry.U32Value}, NsDefault, NsUsernames, NsInnNames)

	reg.Register(registry.Record[models.User](registry.U32Key), NsUsers)
	reg.Register(registry.Record[models.Inn](registry.U32Key), NsInns)
	reg.Register(registry.Record[models.Post](registry.U32Key), NsPosts)
	reg.Register(registry.Record[models.Solo](registry.U32Key), NsSolos)
	reg.Register(registry.Record[models.Comment](registry.PairKey), NsPostComments)

	reg.Register(registry.Layout{Key: registry.U32Key, Value: registry.U32Value},
		NsPostPageviews, NsPostCommentsCount, NsUserSolosCount)
	reg.Register(registry.Layout{Key: registry.TagKey, Value: registry.EmptyValue},
		NsTopics, NsTags, NsHashtags)
	reg.Register(registry.Layout{Key: registry.PairKey, Value: registry.EmptyValue},
		NsModInns, NsUserFollowing, NsUserFollowers, NsInnPosts, NsUserInns, NsInnApply,
		NsPostUpvotes, NsPostDownvotes, NsUserSolosLike, NsSoloUsersLike)
	reg.Register(registry.Layout{Key: registry.PairKey, Value: registry.InnRoleValue}, NsInnUsers)
	reg.Register(registry.Layout{Key: registry.PairKey, Value: registry.InnVisibilityValue}, NsUserPosts)
	reg.Register(registry.Layout{Key: registry.TripleKey, Value: registry.EmptyValue},
		NsUserComments, NsCommentUpvotes, NsCommentDownvotes)
	reg.Register(registry.Layout{Key: registry.TimelineKey, Value: registry.VisibilityValue}, NsPostTimeline)
	reg.Register(registry.Layout{Key: registry.PairKey, Value: registry.U64Value}, NsPostTimelineIdx)
	reg.Register(registry.Layout{Key: registry.PairKey, Value: registry.U32Value}, NsUserSolos)
	reg.Register(registry.Layout{Key: registry.ExpiringKey, Value: registry.HexValue}, ExpiringNamespaces...)
}
