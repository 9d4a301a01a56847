package reconcile

// Action names a row mutation an optimistic update has already applied
// locally.
type Action string

const (
	ActionInsert Action = "insert"
	ActionDelete Action = "delete"
)

type opKey struct {
	entity string
	action Action
	actor  string
}

// Pending tracks optimistic operations whose realtime echo has not been
// observed yet, keyed by (entity, action, actor). The merge step consumes
// a matching entry instead of applying the echoed event, so an optimistic
// update and its echo never both count. Callers synchronize access.
type Pending struct {
	ops map[opKey]int
}

func NewPending() *Pending {
	return &Pending{ops: map[opKey]int{}}
}

func (p *Pending) Add(entity string, action Action, actor string) {
	p.ops[opKey{entity, action, actor}]++
}

// Consume removes one matching entry and reports whether one was present.
func (p *Pending) Consume(entity string, action Action, actor string) bool {
	key := opKey{entity, action, actor}
	n := p.ops[key]
	if n == 0 {
		return false
	}
	if n == 1 {
		delete(p.ops, key)
	} else {
		p.ops[key] = n - 1
	}
	return true
}

func (p *Pending) Len() int {
	n := 0
	for _, count := range p.ops {
		n += count
	}
	return n
}
