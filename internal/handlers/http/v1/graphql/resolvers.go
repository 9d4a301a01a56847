package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/divyamagg2005/CampusVerse/internal/service"
	"github.com/divyamagg2005/CampusVerse/internal/session"
)

func feedQuery(gh *gqlHandler, postViewType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewList(postViewType),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			views, _, err := gh.svc.Feed.Load(p.Context, session.FromContext(p.Context))
			if err != nil {
				return nil, err
			}
			return views, nil
		},
	}
}

func commentsQuery(gh *gqlHandler, commentPageType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: commentPageType,
		Args: graphql.FieldConfigArgument{
			"postId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
			"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: service.CommentPageSize},
			"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			total, comments, err := gh.svc.Comments.Page(
				p.Context,
				p.Args["postId"].(string),
				p.Args["limit"].(int),
				p.Args["offset"].(int),
			)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"total":    total,
				"comments": comments,
			}, nil
		},
	}
}

func collegesQuery(gh *gqlHandler) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewList(graphql.String),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return service.Colleges, nil
		},
	}
}

func meQuery(gh *gqlHandler, userType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: userType,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return gh.svc.Auth.CurrentUser(p.Context, session.FromContext(p.Context))
		},
	}
}

func authPayload(sess *session.Session, token string) map[string]interface{} {
	return map[string]interface{}{
		"token":   token,
		"user_id": sess.UserID,
		"email":   sess.Email,
	}
}

func signUpMutation(gh *gqlHandler, authPayloadType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: authPayloadType,
		Args: graphql.FieldConfigArgument{
			"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			sess, token, err := gh.svc.Auth.SignUp(
				p.Context,
				p.Args["email"].(string),
				p.Args["password"].(string),
			)
			if err != nil {
				return nil, err
			}
			return authPayload(sess, token), nil
		},
	}
}

func signInMutation(gh *gqlHandler, authPayloadType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: authPayloadType,
		Args: graphql.FieldConfigArgument{
			"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			sess, token, err := gh.svc.Auth.SignIn(
				p.Context,
				p.Args["email"].(string),
				p.Args["password"].(string),
			)
			if err != nil {
				return nil, err
			}
			return authPayload(sess, token), nil
		},
	}
}

func signOutMutation(gh *gqlHandler) *graphql.Field {
	return &graphql.Field{
		Type: graphql.Boolean,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			token := session.TokenFromContext(p.Context)
			if token == "" {
				return false, service.ErrNotSignedIn
			}
			if err := gh.svc.Auth.SignOut(token); err != nil {
				return false, err
			}
			return true, nil
		},
	}
}

func refreshMutation(gh *gqlHandler) *graphql.Field {
	return &graphql.Field{
		Type: graphql.String,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			token := session.TokenFromContext(p.Context)
			if token == "" {
				return nil, service.ErrNotSignedIn
			}
			return gh.svc.Auth.Refresh(token)
		},
	}
}

func selectCollegeMutation(gh *gqlHandler) *graphql.Field {
	return &graphql.Field{
		Type: graphql.Boolean,
		Args: graphql.FieldConfigArgument{
			"college": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			err := gh.svc.Auth.SelectCollege(
				p.Context,
				session.FromContext(p.Context),
				p.Args["college"].(string),
			)
			if err != nil {
				return false, err
			}
			return true, nil
		},
	}
}

// createPostMutation covers text-only posts; posts with images go through
// the multipart route so an upload failure can abort the submission.
func createPostMutation(gh *gqlHandler, postType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: postType,
		Args: graphql.FieldConfigArgument{
			"content":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			"anonymous": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return gh.svc.Posts.Create(
				p.Context,
				session.FromContext(p.Context),
				p.Args["content"].(string),
				nil,
				p.Args["anonymous"].(bool),
			)
		},
	}
}

func addCommentMutation(gh *gqlHandler, commentViewType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: commentViewType,
		Args: graphql.FieldConfigArgument{
			"postId":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
			"content": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return gh.svc.Comments.SubmitOnce(
				p.Context,
				p.Args["postId"].(string),
				session.FromContext(p.Context),
				p.Args["content"].(string),
			)
		},
	}
}

func toggleLikeMutation(gh *gqlHandler) *graphql.Field {
	return &graphql.Field{
		Type: graphql.Boolean,
		Args: graphql.FieldConfigArgument{
			"postId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
			"liked":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Boolean)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return gh.svc.Likes.Set(
				p.Context,
				p.Args["postId"].(string),
				session.FromContext(p.Context),
				p.Args["liked"].(bool),
			)
		},
	}
}
