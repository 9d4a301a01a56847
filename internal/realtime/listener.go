package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/lib/pq"

	"github.com/divyamagg2005/CampusVerse/config"
)

// Source hands out realtime subscriptions. The postgres Listener
// implements it; tests substitute a local fan-out.
type Source interface {
	Subscribe(collection string, kinds []Kind, parentKey *ParentKey) *Subscription
}

// Listener bridges postgres LISTEN/NOTIFY into per-surface subscriptions.
// One connection serves every subscription; dispatch preserves the
// commit order the channel delivers.
type Listener struct {
	pql       *pq.Listener
	channel   string
	queueSize int

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func NewListener(pgConf config.Postgres, conf config.Realtime) (*Listener, error) {
	url := fmt.Sprintf(
		"postgresql://%v:%v@%v:%v/%v?sslmode=disable",
		pgConf.User, pgConf.Pass, pgConf.Host, pgConf.Port, pgConf.DB)

	pql := pq.NewListener(url, conf.MinReconnect, conf.MaxReconnect, func(event pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("[REALTIME] listener event %v: %v", event, err)
		}
	})
	if err := pql.Listen(conf.Channel); err != nil {
		return nil, fmt.Errorf("pql.Listen: %v", err)
	}

	l := &Listener{
		pql:       pql,
		channel:   conf.Channel,
		queueSize: conf.QueueSize,
		subs:      map[*Subscription]struct{}{},
	}
	return l, nil
}

// Run pumps notifications until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) {
	log.Println("[REALTIME] listening on channel:", l.channel)
	for {
		select {
		case <-ctx.Done():
			l.pql.Close()
			return
		case n := <-l.pql.Notify:
			if n == nil {
				// reconnect marker; events during the gap are lost,
				// surfaces recover on their next full fetch
				continue
			}
			ev := ChangeEvent{}
			if err := json.Unmarshal([]byte(n.Extra), &ev); err != nil {
				log.Println("[REALTIME] bad payload:", err)
				continue
			}
			l.dispatch(ev)
		}
	}
}

func (l *Listener) dispatch(ev ChangeEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for sub := range l.subs {
		sub.Push(ev)
	}
}

func (l *Listener) Subscribe(collection string, kinds []Kind, parentKey *ParentKey) *Subscription {
	sub := newSubscription(collection, kinds, parentKey, l.queueSize, l.remove)

	l.mu.Lock()
	l.subs[sub] = struct{}{}
	l.mu.Unlock()
	return sub
}

func (l *Listener) remove(sub *Subscription) {
	l.mu.Lock()
	delete(l.subs, sub)
	l.mu.Unlock()
}
