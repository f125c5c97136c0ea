package config

type Network struct {
	Name     string
	ChainID  int
	APIURL   string
	Explorer string
	Symbol   string
	Decimals int
}

var BSCMainnet = Network{
	Name:     "BNB Smart Chain",
	ChainID:  56,
	APIURL:   "https://api.bscscan.com/api",
	Explorer: "https://bscscan.com/",
	Symbol:   "BNB",
	Decimals: 18,
}

type Token struct {
	Address  string
	Symbol   string
	Name     string
	Decimals int32
}

// USDT is the stable token access payments are made in.
var USDT = Token{
	Address:  "0x55d398326f99059ff775485246999027b3197955",
	Symbol:   "USDT",
	Name:     "Tether USD",
	Decimals: 18,
}

// PLEX is the platform token, 9 decimals on the wire.
var PLEX = Token{
	Address:  "0xdf179b6cAdBC61FFD86A3D2e55f6d6e083ade6c1",
	Symbol:   "PLEX",
	Name:     "PLEX ONE",
	Decimals: 9,
}

const (
	DefaultAccessAddress = "0x28915a33562b58500cf8b5b682C89A3396B8Af76"
	DefaultSystemAddress = "0x399B22170B0AC7BB20bdC86772bfF478f201fFCD"
)
