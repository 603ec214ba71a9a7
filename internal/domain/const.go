package domain

// PendingChainRef is the chain reference of a record whose attestation has
// not been confirmed yet.
const PendingChainRef = "pending"

const (
	// DefaultRadiusKm is applied when entering RADIUS mode.
	DefaultRadiusKm = 50.0
	MinRadiusKm     = 10.0
	MaxRadiusKm     = 500.0
)

const (
	MaxLatitude  = 90.0
	MaxLongitude = 180.0
)

// DefaultOnChainTitle is used for attested records that carry no title.
const DefaultOnChainTitle = "On-chain evidence"
