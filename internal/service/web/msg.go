package web

type msg struct {
	mType int
	data  []byte
	err   error
}

// BaseMessage envelopes every websocket push with an explicit name so
// clients can dispatch on it without reflecting on the payload.
type BaseMessage struct {
	Name    string
	Payload interface{}
}

func NewMessage(name string, payload interface{}) BaseMessage {
	return BaseMessage{Name: name, Payload: payload}
}

// SymbolStatsFrame is the live per-symbol snapshot pushed to websocket
// subscribers of that symbol.
type SymbolStatsFrame struct {
	Symbol   string
	Min      float64
	Max      float64
	Last     float64
	Mean     float64
	Variance float64
}
