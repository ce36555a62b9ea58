package ledger

// SeedAccounts is a test helper that writes accounts directly into a store from
// NewInMemory, bypassing the ledgers. It panics for any other backend, where
// the accounts could not be written without a matching ledger record.
func SeedAccounts(s Store, accounts ...Account) {
	mem, ok := s.(*inMemoryStore)
	if !ok || mem.journal != nil {
		panic("ledger: SeedAccounts requires a store from NewInMemory")
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	for _, account := range accounts {
		mem.state.accounts[account.Number] = account
		if account.Number > mem.state.nextNumber {
			mem.state.nextNumber = account.Number
		}
	}
}
