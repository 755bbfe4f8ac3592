package model

// WorldPolicy maps a world contract to the entrypoints eligible for
// session-key, fee-sponsored invocation. It is deployment-time configuration
// and immutable once built.
type WorldPolicy struct {
	WorldAddress string
	Entrypoints  []string
}

// Clicker world entrypoints, in sozo execute format (namespace::system).
const (
	SystemClick      = "gg-clicker::click"
	SystemBuyUpgrade = "gg-clicker::buy_upgrade"
)

// NewWorldPolicy returns the policy table for this deployment.
func NewWorldPolicy(worldAddress string) WorldPolicy {
	return WorldPolicy{
		WorldAddress: worldAddress,
		Entrypoints:  []string{SystemClick, SystemBuyUpgrade},
	}
}
