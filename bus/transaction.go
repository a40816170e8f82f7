package bus

import "fmt"

// Kind tells a write from a read.
type Kind int

const (
	Write Kind = iota
	Read
)

// Name returns the name of the kind.
func (k Kind) Name() string {
	switch k {
	case Write:
		return "Write"
	case Read:
		return "Read"
	default:
		panic("invalid kind")
	}
}

// Transaction is one completed register access, as seen by the harness.
type Transaction struct {
	Kind    Kind
	Channel string
	Addr    Address
	Data    uint64
	Cycle   uint64
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s[%d]=%d@%d", t.Kind.Name(), t.Addr, t.Data, t.Cycle)
}

// TransactionBuilder is a factory for Transaction.
type TransactionBuilder struct {
	kind    Kind
	channel string
	addr    Address
	data    uint64
	cycle   uint64
}

// WithKind sets the kind of the transaction.
func (b TransactionBuilder) WithKind(kind Kind) TransactionBuilder {
	b.kind = kind
	return b
}

// WithChannel sets the name of the channel that issued the transaction.
func (b TransactionBuilder) WithChannel(name string) TransactionBuilder {
	b.channel = name
	return b
}

// WithAddr sets the register address.
func (b TransactionBuilder) WithAddr(addr Address) TransactionBuilder {
	b.addr = addr
	return b
}

// WithData sets the data written or read.
func (b TransactionBuilder) WithData(data uint64) TransactionBuilder {
	b.data = data
	return b
}

// WithCycle sets the clock cycle of the sampling edge.
func (b TransactionBuilder) WithCycle(cycle uint64) TransactionBuilder {
	b.cycle = cycle
	return b
}

// Build creates a Transaction.
func (b TransactionBuilder) Build() Transaction {
	return Transaction{
		Kind:    b.kind,
		Channel: b.channel,
		Addr:    b.addr,
		Data:    b.data,
		Cycle:   b.cycle,
	}
}
