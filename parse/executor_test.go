package parse

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gameScore struct {
	ObjectID   string `json:"objectId"`
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
}

func TestFind(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/parse/classes/GameScore", r.URL.Path)
		assert.Equal(t, `{"score":{"$gt":1000}}`, r.URL.Query().Get("where"))
		assert.Equal(t, "-score", r.URL.Query().Get("order"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"results":[
			{"objectId":"a","playerName":"Sean","score":1337},
			{"objectId":"b","playerName":"Ana","score":1200}
		]}`))
	})

	q := NewQuery("GameScore").GreaterThan("score", Int(1000)).OrderByDescending("score").Limit(2)
	scores, err := Find[gameScore](context.Background(), client, q)
	require.NoError(t, err)
	assert.Equal(t, []gameScore{
		{ObjectID: "a", PlayerName: "Sean", Score: 1337},
		{ObjectID: "b", PlayerName: "Ana", Score: 1200},
	}, scores)
}

func TestFindEmptyResults(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	})

	scores, err := Find[gameScore](context.Background(), client, NewQuery("GameScore"))
	require.NoError(t, err)
	assert.NotNil(t, scores)
	assert.Empty(t, scores)
}

func TestFirst(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1", r.URL.Query().Get("limit"))
			w.Write([]byte(`{"results":[{"objectId":"a","score":1}]}`))
		})

		q := NewQuery("GameScore").Limit(50)
		score, err := First[gameScore](context.Background(), client, q)
		require.NoError(t, err)
		require.NotNil(t, score)
		assert.Equal(t, "a", score.ObjectID)

		limit, _ := mustCompile(t, q).Get("limit")
		assert.Equal(t, "50", limit)
	})

	t.Run("none", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results":[]}`))
		})

		score, err := First[gameScore](context.Background(), client, NewQuery("GameScore"))
		require.NoError(t, err)
		assert.Nil(t, score)
	})
}

func TestGet(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parse/classes/GameScore/abc", r.URL.Path)
		query := r.URL.Query()
		assert.Equal(t, "owner", query.Get("include"))
		assert.Equal(t, "score", query.Get("keys"))
		assert.False(t, query.Has("where"))
		assert.False(t, query.Has("limit"))
		w.Write([]byte(`{"objectId":"abc","score":7}`))
	})

	q := NewQuery("GameScore").EqualTo("ignored", Int(1)).Limit(3).Include("owner").Select("score")
	score, err := Get[gameScore](context.Background(), client, q, "abc")
	require.NoError(t, err)
	assert.Equal(t, 7, score.Score)
}

func TestGetRequiresID(t *testing.T) {
	client, transport := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := Get[gameScore](context.Background(), client, NewQuery("GameScore"), "")
	require.Error(t, err)
	assert.Equal(t, int32(0), transport.calls.Load())
}

func TestCount(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "0", query.Get("limit"))
		assert.Equal(t, "1", query.Get("count"))
		assert.Equal(t, `{"playerName":"Sean"}`, query.Get("where"))
		w.Write([]byte(`{"results":[],"count":42}`))
	})

	q := NewQuery("GameScore").EqualTo("playerName", String("Sean")).Limit(10)
	n, err := Count(context.Background(), client, q)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	limit, _ := mustCompile(t, q).Get("limit")
	assert.Equal(t, "10", limit)
}

func TestDistinctReadsObjectID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parse/aggregate/GameScore", r.URL.Path)
		assert.Equal(t, "m", r.Header.Get(HeaderMasterKey))
		assert.Equal(t, `[{"$match":{"score":{"$gt":10}}},{"$group":{"_id":"$playerName"}}]`, r.URL.Query().Get("pipeline"))
		w.Write([]byte(`{"results":[{"objectId":"Sean","_id":"wrong"},{"objectId":"Ana"}]}`))
	}, WithMasterKey("m"))

	q := NewQuery("GameScore").GreaterThan("score", Int(10))
	names, err := Distinct[string](context.Background(), client, q, "playerName")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sean", "Ana"}, names)
}

func TestAggregate(t *testing.T) {
	pipeline := []Value{
		ObjectValue(map[string]Value{"$group": ObjectValue(map[string]Value{
			"_id":   String("$playerName"),
			"total": ObjectValue(map[string]Value{"$sum": String("$score")}),
		})}),
	}

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "m", r.Header.Get(HeaderMasterKey))
		assert.Empty(t, r.Header.Get(HeaderSessionToken))
		assert.Equal(t, `[{"$group":{"_id":"$playerName","total":{"$sum":"$score"}}}]`, r.URL.Query().Get("pipeline"))
		w.Write([]byte(`{"results":[{"objectId":"Sean","total":2537}]}`))
	}, WithMasterKey("m"), WithSessionToken("r:user"))

	type row struct {
		Player string `json:"objectId"`
		Total  int    `json:"total"`
	}
	rows, err := Aggregate[row](context.Background(), client, NewQuery("GameScore"), pipeline)
	require.NoError(t, err)
	assert.Equal(t, []row{{Player: "Sean", Total: 2537}}, rows)
}

func TestFindObjects(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{
			"objectId":"a",
			"createdAt":"2024-05-01T10:00:00.000Z",
			"updatedAt":"2024-05-02T10:00:00.000Z",
			"score":1337,
			"owner":{"__type":"Pointer","className":"_User","objectId":"u1"}
		}]}`))
	})

	objects, err := client.FindObjects(context.Background(), NewQuery("GameScore"))
	require.NoError(t, err)
	require.Len(t, objects, 1)

	obj := objects[0]
	assert.Equal(t, "GameScore", obj.ClassName)
	assert.Equal(t, "a", obj.ObjectID)
	assert.Equal(t, 2024, obj.CreatedAt.Year())
	assert.Equal(t, 2, obj.UpdatedAt.Day())

	score, ok := obj.Get("score")
	require.True(t, ok)
	n, ok := score.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(1337), n)

	owner, ok := obj.Get("owner")
	require.True(t, ok)
	ptr, ok := owner.AsPointer()
	require.True(t, ok)
	assert.Equal(t, NewPointer("_User", "u1"), ptr)

	_, hasObjectID := obj.Fields["objectId"]
	assert.False(t, hasObjectID)

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"objectId":"a",
		"createdAt":"2024-05-01T10:00:00.000Z",
		"updatedAt":"2024-05-02T10:00:00.000Z",
		"score":1337,
		"owner":{"__type":"Pointer","className":"_User","objectId":"u1"}
	}`, string(data))
}
