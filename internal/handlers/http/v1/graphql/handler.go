package graphql

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/divyamagg2005/CampusVerse/internal/service"
)

type Services struct {
	Auth     *service.AuthService
	Feed     *service.FeedService
	Comments *service.CommentService
	Likes    *service.LikeService
	Posts    *service.PostService
}

type gqlHandler struct {
	svc Services

	schema graphql.Schema
}

func New(svc Services) (*gqlHandler, error) {
	gh := &gqlHandler{
		svc: svc,
	}

	if err := gh.initSchema(); err != nil {
		return nil, err
	}

	return gh, nil
}

func (gh *gqlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	queryJson := make(map[string]interface{})

	err := json.NewDecoder(r.Body).Decode(&queryJson)
	if err != nil {
		log.Println(err)
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	queryString, ok := queryJson["query"].(string)
	if !ok {
		http.Error(w, "query field is required", http.StatusBadRequest)
		return
	}

	varQuery, _ := queryJson["variables"].(map[string]interface{})

	res := graphql.Do(graphql.Params{
		Context:        r.Context(),
		Schema:         gh.schema,
		RequestString:  queryString,
		VariableValues: varQuery,
	})
	json.NewEncoder(w).Encode(res)
}
