package graphql

import (
	"time"

	"github.com/graphql-go/graphql"
)

var DateTime = graphql.NewScalar(
	graphql.ScalarConfig{
		Name:        "DateTime",
		Description: "DateTime scalar type",
		Serialize: func(value interface{}) interface{} {
			switch v := value.(type) {
			case time.Time:
				return v.Format(time.RFC3339)
			case *time.Time:
				return v.Format(time.RFC3339)
			default:
				return nil
			}
		},
	},
)

func (gh *gqlHandler) initSchema() error {
	userType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "User",
			Fields: graphql.Fields{
				"id":         &graphql.Field{Type: graphql.ID},
				"email":      &graphql.Field{Type: graphql.String},
				"college":    &graphql.Field{Type: graphql.String},
				"created_at": &graphql.Field{Type: DateTime},
			},
		},
	)

	postType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Post",
			Fields: graphql.Fields{
				"id":         &graphql.Field{Type: graphql.ID},
				"user_id":    &graphql.Field{Type: graphql.ID},
				"content":    &graphql.Field{Type: graphql.String},
				"image_url":  &graphql.Field{Type: graphql.String},
				"college":    &graphql.Field{Type: graphql.String},
				"anonymous":  &graphql.Field{Type: graphql.Boolean},
				"created_at": &graphql.Field{Type: DateTime},
			},
		},
	)

	postViewType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "PostView",
			Fields: graphql.Fields{
				"post":         &graphql.Field{Type: postType},
				"author_email": &graphql.Field{Type: graphql.String},
				"like_count":   &graphql.Field{Type: graphql.Int},
				"liked_by_me":  &graphql.Field{Type: graphql.Boolean},
			},
		},
	)

	commentType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Comment",
			Fields: graphql.Fields{
				"id":         &graphql.Field{Type: graphql.ID},
				"post_id":    &graphql.Field{Type: graphql.ID},
				"user_id":    &graphql.Field{Type: graphql.ID},
				"content":    &graphql.Field{Type: graphql.String},
				"created_at": &graphql.Field{Type: DateTime},
			},
		},
	)

	commentViewType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "CommentView",
			Fields: graphql.Fields{
				"comment":      &graphql.Field{Type: commentType},
				"author_email": &graphql.Field{Type: graphql.String},
			},
		},
	)

	commentPageType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "CommentPage",
			Fields: graphql.Fields{
				"total":    &graphql.Field{Type: graphql.Int},
				"comments": &graphql.Field{Type: graphql.NewList(commentViewType)},
			},
		},
	)

	authPayloadType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "AuthPayload",
			Fields: graphql.Fields{
				"token":   &graphql.Field{Type: graphql.String},
				"user_id": &graphql.Field{Type: graphql.ID},
				"email":   &graphql.Field{Type: graphql.String},
			},
		},
	)

	queryType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"feed":     feedQuery(gh, postViewType),
				"comments": commentsQuery(gh, commentPageType),
				"colleges": collegesQuery(gh),
				"me":       meQuery(gh, userType),
			},
		},
	)

	mutationType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Mutation",
			Fields: graphql.Fields{
				"signUp":        signUpMutation(gh, authPayloadType),
				"signIn":        signInMutation(gh, authPayloadType),
				"signOut":       signOutMutation(gh),
				"refresh":       refreshMutation(gh),
				"selectCollege": selectCollegeMutation(gh),
				"createPost":    createPostMutation(gh, postType),
				"addComment":    addCommentMutation(gh, commentViewType),
				"toggleLike":    toggleLikeMutation(gh),
			},
		},
	)

	schemaConfig := graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	}

	schema, err := graphql.NewSchema(schemaConfig)
	if err != nil {
		return err
	}
	gh.schema = schema

	return nil
}
