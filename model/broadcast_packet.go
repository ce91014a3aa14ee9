package model

type BroadcastPacket struct {
	Id      string   `json:"id"`
	Idx     int      `json:"idx"`
	Event   string   `json:"event"`
	Message *string  `json:"message,omitempty"`
	ToIdx   *int     `json:"toIdx,omitempty"`
	State   Snapshot `json:"state"`
}

const (
	E_CONFIG     = "config"
	E_START      = "start"
	E_ELIMINATE  = "eliminate"
	E_NEXT_ROUND = "next_round"
	E_SHERIFF    = "sheriff"
	E_RESET      = "reset"
	E_HYDRATED   = "hydrated"
)
