package domain

// Info describes the journal this node serves. It is safe to expose to clients.
type Info struct {
	Network        string `json:"network"`
	JournalAddress string `json:"journalAddress"`
	ExplorerBase   string `json:"explorerBase"`
	MemoType       string `json:"memoType"`
	GatewayBase    string `json:"gatewayBase"`
}
