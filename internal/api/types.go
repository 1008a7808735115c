package api

// JsonAccount is the wire representation of a ledger account. Balances
// are always rendered to exactly two fractional digits.
type JsonAccount struct {
	DDXBalance    string `json:"ddxBalance"`
	USDBalance    string `json:"usdBalance"`
	TraderAddress string `json:"traderAddress"`
}

// JsonOrder is the wire representation of a limit order. Side
// serialises as 0=Bid, 1=Ask; nonce is a 0x-prefixed 256-bit hex
// string; amount and price are two-decimal strings.
type JsonOrder struct {
	Amount        string `json:"amount"`
	Nonce         string `json:"nonce"`
	Price         string `json:"price"`
	Side          int    `json:"side"`
	TraderAddress string `json:"traderAddress"`
}

// JsonFill is one resting-order/aggressor match, as returned from a
// successful order submission.
type JsonFill struct {
	MakerHash  string `json:"maker_hash"`
	TakerHash  string `json:"taker_hash"`
	FillAmount string `json:"fill_amount"`
	Price      string `json:"price"`
}

// L2Entry is one resting order's contribution to a depth snapshot.
type L2Entry struct {
	Amount string `json:"amount"`
	Price  string `json:"price"`
}

// L2OrderBook is the full depth snapshot, truncated to 50 entries per
// side.
type L2OrderBook struct {
	Asks []L2Entry `json:"asks"`
	Bids []L2Entry `json:"bids"`
}

// errNoAccount and errNoOrder are the 404 bodies used across the
// surface, named after the original service's error variants.
type errNoAccount struct {
	Address string `json:"address"`
	Err     string `json:"err"`
}

type errNoOrder struct {
	Hash string `json:"hash"`
	Err  string `json:"err"`
}

type errServer struct {
	Err string `json:"err"`
}
