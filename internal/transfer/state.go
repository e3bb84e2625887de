package transfer

type Operation string

const (
	OpConnect          = Operation("connect")
	OpTransferContract = Operation("transfer_contract")
	OpTransferDirect   = Operation("transfer_direct")
)

type Phase string

const (
	PhaseIdle        = Phase("idle")
	PhaseAuthorizing = Phase("authorizing")
	PhaseSwitching   = Phase("switching_chain")
	PhaseValidating  = Phase("validating")
	PhaseEstimating  = Phase("estimating")
	PhasePricing     = Phase("pricing")
	PhaseSubmitting  = Phase("submitting")
	PhasePending     = Phase("pending")
	PhaseConfirmed   = Phase("confirmed")
	PhaseFailed      = Phase("failed")
)

// InFlight marks operations that have started and not yet reached a
// terminal phase. The matching control is disabled while set.
type InFlight struct {
	Connect  bool `json:"connect"`
	Contract bool `json:"contract"`
	Direct   bool `json:"direct"`
}

func (f InFlight) Get(op Operation) bool {
	switch op {
	case OpConnect:
		return f.Connect
	case OpTransferContract:
		return f.Contract
	case OpTransferDirect:
		return f.Direct
	}
	return false
}

func (f InFlight) with(op Operation, v bool) InFlight {
	switch op {
	case OpConnect:
		f.Connect = v
	case OpTransferContract:
		f.Contract = v
	case OpTransferDirect:
		f.Direct = v
	}
	return f
}

// Any reports whether some operation is still running.
func (f InFlight) Any() bool {
	return f.Connect || f.Contract || f.Direct
}

// State is one immutable snapshot of the transfer form. Snapshots are
// only ever produced by Reduce.
type State struct {
	Version       uint64     `json:"version"`
	Recipient     string     `json:"recipient"`
	Amount        string     `json:"amount"`
	StatusMessage string     `json:"status_message"`
	IsConnected   bool       `json:"is_connected"`
	Account       string     `json:"account"`
	Operation     Operation  `json:"operation,omitempty"`
	OperationID   string     `json:"operation_id,omitempty"`
	Phase         Phase      `json:"phase"`
	TxHash        string     `json:"tx_hash,omitempty"`
	BlockNumber   uint64     `json:"block_number,omitempty"`
	LastError     *ErrorInfo `json:"last_error,omitempty"`
	InFlight      InFlight   `json:"in_flight"`
}

func InitialState() State {
	return State{Phase: PhaseIdle}
}

// Event is a state transition input. The set of events is closed.
type Event interface {
	apply(s State) State
}

// Reduce returns the snapshot that follows s after ev.
func Reduce(s State, ev Event) State {
	next := ev.apply(s)
	next.Version = s.Version + 1
	return next
}

type RecipientChanged struct{ Value string }

func (e RecipientChanged) apply(s State) State {
	s.Recipient = e.Value
	return s
}

type AmountChanged struct{ Value string }

func (e AmountChanged) apply(s State) State {
	s.Amount = e.Value
	return s
}

type OperationStarted struct {
	Op      Operation
	ID      string
	Message string
}

func (e OperationStarted) apply(s State) State {
	s.Operation = e.Op
	s.OperationID = e.ID
	s.Phase = PhaseValidating
	if e.Op == OpConnect {
		s.Phase = PhaseAuthorizing
	}
	s.TxHash = ""
	s.BlockNumber = 0
	s.LastError = nil
	s.StatusMessage = e.Message
	s.InFlight = s.InFlight.with(e.Op, true)
	return s
}

// PhaseChanged moves the running operation forward. An empty Message keeps
// the current status line.
type PhaseChanged struct {
	Op      Operation
	Phase   Phase
	Message string
}

func (e PhaseChanged) apply(s State) State {
	s.Operation = e.Op
	s.Phase = e.Phase
	if e.Message != "" {
		s.StatusMessage = e.Message
	}
	return s
}

// Connected is the only event that sets Account and IsConnected.
type Connected struct {
	Account string
	Message string
}

func (e Connected) apply(s State) State {
	s.Operation = OpConnect
	s.Account = e.Account
	s.IsConnected = true
	s.Phase = PhaseIdle
	s.StatusMessage = e.Message
	s.InFlight = s.InFlight.with(OpConnect, false)
	return s
}

type TxSubmitted struct {
	Op      Operation
	Hash    string
	Message string
}

func (e TxSubmitted) apply(s State) State {
	s.Operation = e.Op
	s.Phase = PhasePending
	s.TxHash = e.Hash
	s.StatusMessage = e.Message
	return s
}

type TxConfirmed struct {
	Op          Operation
	BlockNumber uint64
	Message     string
}

func (e TxConfirmed) apply(s State) State {
	s.Operation = e.Op
	s.Phase = PhaseConfirmed
	s.BlockNumber = e.BlockNumber
	s.StatusMessage = e.Message
	s.InFlight = s.InFlight.with(e.Op, false)
	return s
}

// OperationFailed ends an operation. Account and IsConnected are left as they were.
type OperationFailed struct {
	Op      Operation
	Err     *Error
	Message string
}

func (e OperationFailed) apply(s State) State {
	s.Operation = e.Op
	s.Phase = PhaseFailed
	s.StatusMessage = e.Message
	if e.Err != nil {
		s.LastError = &ErrorInfo{Kind: e.Err.Kind, Detail: e.Err.Message()}
	}
	s.InFlight = s.InFlight.with(e.Op, false)
	return s
}
