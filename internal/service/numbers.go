package service

import (
	"fmt"
	"sync"

	"bankledger/internal/domain"
)

// numberAllocator issues account numbers from a monotonic counter. Numbers
// are never reused, even for accounts that are later deactivated. The
// counter is owned by the service instance; a multi-instance deployment
// would delegate numbering to the repository instead.
type numberAllocator struct {
	mu   sync.Mutex
	next int64
}

func newNumberAllocator(start int64) *numberAllocator {
	return &numberAllocator{next: start}
}

func (n *numberAllocator) Next(accountType domain.AccountType) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.next++
	return fmt.Sprintf("%s%d", domain.NumberPrefix(accountType), n.next)
}
