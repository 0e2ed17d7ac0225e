package domain

// On-chain global state keys of a property application.
const (
	KeyTitle    = "TITLE"
	KeyImage    = "IMAGE"
	KeyLocation = "LOCATION"
	KeyPrice    = "PRICE"
	KeyBought   = "BOUGHT"
	KeyRate     = "RATE"
	KeyBuyer    = "BUYER"
)

// State value types as reported by the indexer (TealValue.Type).
const (
	StateTypeBytes uint64 = 1
	StateTypeUint  uint64 = 2
)

// Property is a listing decoded from an application's global state.
// AppID is assigned by the network at creation and never reused.
type Property struct {
	AppID    uint64 `json:"app_id"`
	Title    string `json:"title"`
	Image    string `json:"image"`
	Location string `json:"location"`
	Price    uint64 `json:"price"`
	Bought   uint64 `json:"bought"`
	Rate     uint64 `json:"rate"`
	Buyer    string `json:"buyer"`
	Owner    string `json:"owner"`
}

// Purchased reports whether a buy has been confirmed for the listing.
func (p Property) Purchased() bool {
	return p.Bought != 0
}

// StateValue is one raw global-state entry. Key and Bytes are base64, as the indexer returns them.
type StateValue struct {
	Key   string
	Type  uint64
	Bytes string
	Uint  uint64
}

// ApplicationState is the indexer's view of an application, reduced to what decoding needs.
type ApplicationState struct {
	AppID       uint64
	Creator     string
	Deleted     bool
	GlobalState []StateValue
}
