package explorer

// Query parameter sets for the BscScan-compatible account module, encoded
// with go-querystring.

type tokenTxParams struct {
	Module          string `url:"module"`
	Action          string `url:"action"`
	Address         string `url:"address"`
	ContractAddress string `url:"contractaddress,omitempty"`
	StartBlock      int    `url:"startblock"`
	EndBlock        int64  `url:"endblock"`
	Sort            string `url:"sort"`
}

type tokenBalanceParams struct {
	Module          string `url:"module"`
	Action          string `url:"action"`
	ContractAddress string `url:"contractaddress"`
	Address         string `url:"address"`
	Tag             string `url:"tag"`
}

type balanceParams struct {
	Module  string `url:"module"`
	Action  string `url:"action"`
	Address string `url:"address"`
	Tag     string `url:"tag"`
}
