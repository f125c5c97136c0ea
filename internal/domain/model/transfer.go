package model

import "strconv"

// TransferRecord is a single token transfer row as returned by the
// BscScan-compatible explorer API. All numeric fields arrive as strings.
type TransferRecord struct {
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	ContractAddress string `json:"contractAddress"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
}

// Timestamp returns the transfer time as unix seconds, 0 when unparsable.
func (t TransferRecord) Timestamp() int64 {
	ts, err := strconv.ParseInt(t.TimeStamp, 10, 64)
	if err != nil {
		return 0
	}
	return ts
}
