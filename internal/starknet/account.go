package starknet

// Account is the chain service account used to submit sponsored calls.
// Dispatch goes through the Cartridge RPC, which recognizes the registered
// account and sponsors fees via its paymaster; the key never leaves config.
type Account struct {
	Address    string
	PrivateKey string
}

// Configured reports whether the account can be used for dispatch.
func (a Account) Configured() bool {
	return a.Address != "" && a.PrivateKey != ""
}
