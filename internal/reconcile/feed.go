package reconcile

import "github.com/divyamagg2005/CampusVerse/internal/model"

// UnknownEmail is shown when a post's author cannot be resolved, e.g. the
// author row vanished between the posts fetch and the users fetch.
const UnknownEmail = "unknown@example.com"

// PostView is the derived, UI-facing shape of one post: the row plus the
// denormalized author email and like affordances for the viewer.
type PostView struct {
	Post        model.Post `json:"post"`
	AuthorEmail string     `json:"author_email"`
	LikeCount   int        `json:"like_count"`
	LikedByMe   bool       `json:"liked_by_me"`
}

// BuildFeed folds the three independently fetched collections into the
// annotated post list. Posts keep their fetch order (created_at desc,
// ties stable). Likes are folded into a per-post count and a liked-by-
// viewer flag; authors resolve to their email or UnknownEmail.
func BuildFeed(posts []model.Post, users []model.User, likes []model.Like, viewerID string) []PostView {
	emails := make(map[string]string, len(users))
	for _, user := range users {
		emails[user.ID] = user.Email
	}

	likeCounts := map[string]int{}
	likedByViewer := map[string]bool{}
	for _, like := range likes {
		likeCounts[like.PostID]++
		if like.UserID == viewerID {
			likedByViewer[like.PostID] = true
		}
	}

	views := make([]PostView, 0, len(posts))
	for _, post := range posts {
		email, ok := emails[post.UserID]
		if !ok {
			email = UnknownEmail
		}
		views = append(views, PostView{
			Post:        post,
			AuthorEmail: email,
			LikeCount:   likeCounts[post.ID],
			LikedByMe:   likedByViewer[post.ID],
		})
	}
	return views
}
