package realtime

import "encoding/json"

type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

const (
	CollectionPosts    = "posts"
	CollectionLikes    = "post_likes"
	CollectionComments = "post_comments"
)

// ChangeEvent is one committed row change, as emitted by the
// notify_row_change trigger. New is nil on delete, Old is nil on insert.
type ChangeEvent struct {
	Collection string          `json:"collection"`
	Kind       Kind            `json:"kind"`
	New        json.RawMessage `json:"new,omitempty"`
	Old        json.RawMessage `json:"old,omitempty"`
}

// Row returns the row carried by the event: the new values for inserts
// and updates, the old values for deletes.
func (ev ChangeEvent) Row() json.RawMessage {
	if ev.Kind == KindDelete {
		return ev.Old
	}
	return ev.New
}

// DecodeRow unmarshals the event's row into v.
func (ev ChangeEvent) DecodeRow(v interface{}) error {
	return json.Unmarshal(ev.Row(), v)
}

// RowField extracts one string field from the event's row without
// committing to a full row type. Used for parent-key filtering.
func (ev ChangeEvent) RowField(name string) string {
	fields := map[string]interface{}{}
	if err := json.Unmarshal(ev.Row(), &fields); err != nil {
		return ""
	}
	value, _ := fields[name].(string)
	return value
}
