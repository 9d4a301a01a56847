package realtime

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/assert/v2"
)

func row(fields map[string]interface{}) json.RawMessage {
	data, _ := json.Marshal(fields)
	return data
}

func TestSubscriptionFiltersCollectionAndKind(t *testing.T) {
	sub := NewSubscription(CollectionComments, []Kind{KindInsert}, nil, 8)

	sub.Push(ChangeEvent{Collection: CollectionPosts, Kind: KindInsert, New: row(map[string]interface{}{"id": "p1"})})
	sub.Push(ChangeEvent{Collection: CollectionComments, Kind: KindDelete, Old: row(map[string]interface{}{"id": "c1"})})
	sub.Push(ChangeEvent{Collection: CollectionComments, Kind: KindInsert, New: row(map[string]interface{}{"id": "c2"})})

	ev := <-sub.Events()
	assert.Equal(t, CollectionComments, ev.Collection)
	assert.Equal(t, KindInsert, ev.Kind)
	assert.Equal(t, "c2", ev.RowField("id"))

	select {
	case extra := <-sub.Events():
		t.Fatalf("unexpected extra event: %+v", extra)
	default:
	}
}

func TestSubscriptionParentKeyFilter(t *testing.T) {
	sub := NewSubscription(CollectionComments, []Kind{KindInsert, KindDelete}, &ParentKey{Field: "post_id", Value: "p1"}, 8)

	sub.Push(ChangeEvent{Collection: CollectionComments, Kind: KindInsert, New: row(map[string]interface{}{"id": "c1", "post_id": "p2"})})
	sub.Push(ChangeEvent{Collection: CollectionComments, Kind: KindInsert, New: row(map[string]interface{}{"id": "c2", "post_id": "p1"})})
	// delete events match on their old values
	sub.Push(ChangeEvent{Collection: CollectionComments, Kind: KindDelete, Old: row(map[string]interface{}{"id": "c2", "post_id": "p1"})})

	ev := <-sub.Events()
	assert.Equal(t, "c2", ev.RowField("id"))
	ev = <-sub.Events()
	assert.Equal(t, KindDelete, ev.Kind)
}

func TestSubscriptionOrderPreserved(t *testing.T) {
	sub := NewSubscription(CollectionLikes, nil, nil, 8)

	for i := 0; i < 5; i++ {
		sub.Push(ChangeEvent{Collection: CollectionLikes, Kind: KindInsert, New: row(map[string]interface{}{"id": string(rune('a' + i))})})
	}
	for i := 0; i < 5; i++ {
		ev := <-sub.Events()
		assert.Equal(t, string(rune('a'+i)), ev.RowField("id"))
	}
}

func TestSubscriptionOverflowDropsNotBlocks(t *testing.T) {
	sub := NewSubscription(CollectionLikes, nil, nil, 2)

	// a stalled consumer must not block the dispatcher
	for i := 0; i < 10; i++ {
		sub.Push(ChangeEvent{Collection: CollectionLikes, Kind: KindInsert, New: row(map[string]interface{}{"id": "l1"})})
	}

	received := 0
	for {
		select {
		case <-sub.Events():
			received++
			continue
		default:
		}
		break
	}
	assert.Equal(t, 2, received)
}

func TestSubscriptionCloseIdempotent(t *testing.T) {
	sub := NewSubscription(CollectionLikes, nil, nil, 2)
	sub.Close()
	sub.Close()

	// push after close is a no-op
	sub.Push(ChangeEvent{Collection: CollectionLikes, Kind: KindInsert, New: row(map[string]interface{}{"id": "l1"})})

	_, open := <-sub.Events()
	assert.Equal(t, false, open)
}

func TestChangeEventDecodeRow(t *testing.T) {
	ev := ChangeEvent{
		Collection: CollectionComments,
		Kind:       KindInsert,
		New:        row(map[string]interface{}{"id": "c1", "post_id": "p1", "content": "hi"}),
	}

	decoded := struct {
		ID      string `json:"id"`
		PostID  string `json:"post_id"`
		Content string `json:"content"`
	}{}
	assert.Equal(t, nil, ev.DecodeRow(&decoded))
	assert.Equal(t, "c1", decoded.ID)
	assert.Equal(t, "p1", decoded.PostID)
}
