package forum

// Namespace names. Layouts use '#' to mean plain concatenation of
// fixed-width big-endian fields; tag keys carry a literal '#'.
const (
	NsDefault = "default" // "<thing>_count" -> u32

	NsUsers         = "users"          // uid -> User
	NsUsernames     = "usernames"      // normalized name -> uid
	NsUserFollowing = "user_following" // uid#uid
	NsUserFollowers = "user_followers" // uid#uid

	NsInns     = "inns"      // iid -> Inn
	NsInnNames = "inn_names" // normalized name -> iid
	NsTopics   = "topics"    // topic#iid
	NsModInns  = "mod_inns"  // uid#iid
	NsInnPosts = "inn_posts" // iid#pid
	NsUserInns = "user_inns" // uid#iid
	NsInnUsers = "inn_users" // iid#uid -> inn role
	NsInnApply = "inn_apply" // iid#uid

	NsPosts           = "posts"             // pid -> Post
	NsUserPosts       = "user_posts"        // uid#pid -> iid#inn_type
	NsTags            = "tags"              // tag#pid
	NsPostTimeline    = "post_timeline"     // ts#iid#pid -> inn_type
	NsPostTimelineIdx = "post_timeline_idx" // iid#pid -> ts
	NsPostPageviews   = "post_pageviews"    // pid -> u32
	NsPostUpvotes     = "post_upvotes"      // pid#uid
	NsPostDownvotes   = "post_downvotes"    // pid#uid

	NsPostCommentsCount = "post_comments_count" // pid -> u32
	NsPostComments      = "post_comments"       // pid#cid -> Comment
	NsUserComments      = "user_comments"       // uid#pid#cid
	NsCommentUpvotes    = "comment_upvotes"     // pid#cid#uid
	NsCommentDownvotes  = "comment_downvotes"   // pid#cid#uid

	NsSolos          = "solos"            // sid -> Solo
	NsUserSolos      = "user_solos"       // uid#cursor -> sid
	NsUserSolosCount = "user_solos_count" // uid -> u32
	NsHashtags       = "hashtags"         // hashtag#sid
	NsUserSolosLike  = "user_solos_like"  // uid#sid
	NsSoloUsersLike  = "solo_users_like"  // sid#uid

	NsSessions = "sessions" // hexexpiry_id -> payload
	NsCaptcha  = "captcha"  // hexexpiry_id -> payload
)

// counter keys in NsDefault
const (
	usersCount = "users_count"
	innsCount  = "inns_count"
	postsCount = "posts_count"
	solosCount = "solos_count"
)

// AllNamespaces lists every namespace the forum opens.
var AllNamespaces = []string{
	NsDefault,
	NsUsers, NsUsernames, NsUserFollowing, NsUserFollowers,
	NsInns, NsInnNames, NsTopics, NsModInns, NsInnPosts, NsUserInns, NsInnUsers, NsInnApply,
	NsPosts, NsUserPosts, NsTags, NsPostTimeline, NsPostTimelineIdx, NsPostPageviews,
	NsPostUpvotes, NsPostDownvotes,
	NsPostCommentsCount, NsPostComments, NsUserComments, NsCommentUpvotes, NsCommentDownvotes,
	NsSolos, NsUserSolos, NsUserSolosCount, NsHashtags, NsUserSolosLike, NsSoloUsersLike,
	NsSessions, NsCaptcha,
}

// ExpiringNamespaces hold hexexpiry_id keys and are swept.
var ExpiringNamespaces = []string{NsSessions, NsCaptcha}

const (
	maxTags      = 5
	maxHashtags  = 5
	maxTagLength = 25
)
