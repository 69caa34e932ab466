package types

// ExecutionStatus is the outcome of executing a transaction.
type ExecutionStatus uint8

const (
	ExecutionSuccess ExecutionStatus = iota
	ExecutionFailure
)

func (s ExecutionStatus) String() string {
	switch s {
	case ExecutionSuccess:
		return "success"
	case ExecutionFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// TransactionData is the signed intent of a transaction sender.
type TransactionData struct {
	_         struct{} `cbor:",toarray"`
	Sender    Address
	GasBudget uint64
	GasPrice  uint64
	Kind      string
	Payload   []byte
}

// Transaction is a sender signed transaction.
type Transaction struct {
	_          struct{} `cbor:",toarray"`
	Data       TransactionData
	Signatures [][]byte
}

// Digest identifies the transaction. Signatures are not covered.
func (tx *Transaction) Digest() Digest {
	d, err := DigestOf(&tx.Data)
	if err != nil {
		panic(err)
	}
	return d
}

// TransactionEffects is the execution outcome of a transaction.
type TransactionEffects struct {
	_                 struct{} `cbor:",toarray"`
	Status            ExecutionStatus
	ExecutedEpoch     uint64
	GasUsed           GasCostSummary
	TransactionDigest Digest
	Created           []ObjectRef
	Mutated           []ObjectRef
	Deleted           []ObjectRef
	EventsDigest      *Digest
	Dependencies      []Digest
}

// Digest returns the effects digest listed in checkpoint contents.
func (e *TransactionEffects) Digest() Digest {
	d, err := DigestOf(e)
	if err != nil {
		panic(err)
	}
	return d
}

// Event is emitted by a Move module during execution.
type Event struct {
	_                 struct{} `cbor:",toarray"`
	PackageID         ObjectID
	TransactionModule string
	Sender            Address
	Type              string
	Contents          []byte
}

// TransactionEvents are all the events emitted by one transaction.
type TransactionEvents struct {
	_    struct{} `cbor:",toarray"`
	Data []Event
}

// Digest returns the digest committed to by TransactionEffects.EventsDigest.
func (ev *TransactionEvents) Digest() Digest {
	d, err := DigestOf(ev)
	if err != nil {
		panic(err)
	}
	return d
}

// CheckpointTransaction is one executed transaction as it appears in a full
// checkpoint.
type CheckpointTransaction struct {
	_           struct{} `cbor:",toarray"`
	Transaction Transaction
	Effects     TransactionEffects
	Events      *TransactionEvents
}

// CheckpointData is a full checkpoint: the certified summary, its contents
// and every transaction with its effects and events.
type CheckpointData struct {
	_            struct{} `cbor:",toarray"`
	Checkpoint   CertifiedCheckpointSummary
	Contents     CheckpointContents
	Transactions []CheckpointTransaction
}
