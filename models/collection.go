// File: /models/collection.go
package models

// CollectionKind names one independently fetched list of view rows.
type CollectionKind string

const (
	CollectionFeed           CollectionKind = "feed"
	CollectionMyPosts        CollectionKind = "my_posts"
	CollectionMyReposts      CollectionKind = "my_reposts"
	CollectionFavorites      CollectionKind = "favorites"
	CollectionProfilePosts   CollectionKind = "profile_posts"
	CollectionProfileReposts CollectionKind = "profile_reposts"
	CollectionPost           CollectionKind = "post"
)

// CollectionKey identifies a collection. OwnerID is the user whose profile
// page is shown for profile collections, and the post id for a single post.
type CollectionKey struct {
	Kind    CollectionKind `json:"kind"`
	OwnerID string         `json:"ownerId,omitempty"`
}

func FeedKey() CollectionKey      { return CollectionKey{Kind: CollectionFeed} }
func MyPostsKey() CollectionKey   { return CollectionKey{Kind: CollectionMyPosts} }
func MyRepostsKey() CollectionKey { return CollectionKey{Kind: CollectionMyReposts} }
func FavoritesKey() CollectionKey { return CollectionKey{Kind: CollectionFavorites} }

func ProfilePostsKey(userID string) CollectionKey {
	return CollectionKey{Kind: CollectionProfilePosts, OwnerID: userID}
}

func ProfileRepostsKey(userID string) CollectionKey {
	return CollectionKey{Kind: CollectionProfileReposts, OwnerID: userID}
}

// PostKey holds the one row shown on a post's own page.
func PostKey(postID string) CollectionKey {
	return CollectionKey{Kind: CollectionPost, OwnerID: postID}
}

func (k CollectionKey) String() string {
	if k.OwnerID == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + ":" + k.OwnerID
}

// Collection is a materialized list as served to the browser.
type Collection struct {
	Key   CollectionKey       `json:"key"`
	Posts []AggregatePostView `json:"posts"`
}
