package web

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/symrange/symrange/pkg/ringbuf"
)

// recentFrames bounds how many past broadcast frames the keeper keeps
// around so a client that subscribes between two reporter ticks still
// gets an immediate snapshot instead of waiting out the full interval.
const recentFrames = 256

type keeper struct {
	mx     sync.RWMutex
	active map[*websocket.Conn]struct{}
	subs   map[*websocket.Conn]map[string]struct{}

	recentMx sync.Mutex
	recent   *ringbuf.Ring[SymbolStatsFrame]
}

func newKeeper() *keeper {
	return &keeper{
		active: make(map[*websocket.Conn]struct{}),
		subs:   make(map[*websocket.Conn]map[string]struct{}),
		recent: ringbuf.New[SymbolStatsFrame](recentFrames),
	}
}

// recordFrame remembers a just-broadcast frame for later replay.
func (k *keeper) recordFrame(f SymbolStatsFrame) {
	k.recentMx.Lock()
	defer k.recentMx.Unlock()
	k.recent.PushFront(f)
}

// latestFor returns the most recently broadcast frame for symbol, if
// one has been recorded since the keeper started.
func (k *keeper) latestFor(symbol string) (SymbolStatsFrame, bool) {
	k.recentMx.Lock()
	defer k.recentMx.Unlock()

	found := SymbolStatsFrame{}
	ok := false
	k.recent.WalkFirstN(k.recent.Len(), func(f SymbolStatsFrame) {
		if !ok && f.Symbol == symbol {
			found, ok = f, true
		}
	})
	return found, ok
}

func (k *keeper) addConn(conn *websocket.Conn) {
	k.mx.Lock()
	defer k.mx.Unlock()
	k.active[conn] = struct{}{}
	k.subs[conn] = make(map[string]struct{})
}
func (k *keeper) walkSubs(fn func(conn *websocket.Conn, symbols map[string]struct{}) error) error {
	k.mx.RLock()
	defer k.mx.RUnlock()

	for conn, symbols := range k.subs {
		if err := fn(conn, symbols); err != nil {
			return err
		}
	}

	return nil
}

func (k *keeper) close(conn *websocket.Conn) {
	k.mx.Lock()
	defer k.mx.Unlock()

	_ = conn.Close()
	delete(k.active, conn)
	delete(k.subs, conn)
}

func (k *keeper) keep(conn *websocket.Conn) {
	pinger := time.NewTicker(time.Second)
	defer pinger.Stop()

	lastAlive := time.Now()
	const deadlineSeconds = 5
	read := make(chan msg)
	defer k.close(conn)

	ponger := conn.PongHandler()
	conn.SetPongHandler(func(appData string) error {
		lastAlive = time.Now()
		return ponger(appData)
	})

	go func() {
		for {
			mt, data, err := conn.ReadMessage()
			read <- msg{
				mType: mt,
				data:  data,
				err:   err,
			}
			if err != nil {
				close(read)
				return
			}
		}
	}()

	for {
		select {
		case <-pinger.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second)); err != nil {
				return
			}
			if time.Since(lastAlive).Seconds() > deadlineSeconds {
				return
			}
		case msg, ok := <-read:
			if !ok {
				return
			}

			if msg.err != nil {
				return
			}

			switch msg.mType {
			case websocket.CloseMessage:
				return
			case websocket.TextMessage:
				symbol := string(msg.data)
				if symbol == "" {
					continue
				}
				k.mx.Lock()
				k.subs[conn][symbol] = struct{}{}
				k.mx.Unlock()

				if frame, ok := k.latestFor(symbol); ok {
					if js, err := json.Marshal(NewMessage("symbol_stats", frame)); err == nil {
						_ = conn.WriteMessage(websocket.TextMessage, js)
					}
				}
			}

			lastAlive = time.Now()
		}
	}
}
