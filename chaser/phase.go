package chaser

// Phase is one state of the IBD pipeline's state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseHeaders
	PhaseDownload
	PhaseDrain
	PhaseValidate
	PhaseFlush
	PhasePrune
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseHeaders:
		return "HEADERS"
	case PhaseDownload:
		return "DOWNLOAD"
	case PhaseDrain:
		return "DRAIN"
	case PhaseValidate:
		return "VALIDATE"
	case PhaseFlush:
		return "FLUSH"
	case PhasePrune:
		return "PRUNE"
	case PhaseDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Event is a signal the dispatcher reacts to while sequencing phases.
type Event int

const (
	EventStart Event = iota
	EventResume
	EventBump
	EventChecked
	EventValid
	EventOrganized
	EventReorganized
	EventRegressed
	EventDisorganized
	EventStop
)

// ChunkMax is the largest height range a single VALIDATE phase will
// build a ChunkValidator over.
const ChunkMax = 1000

// ReorgMargin is the number of heights below the validated tip that
// PRUNE always leaves on disk, so a reorg of ordinary depth can still
// be served without a full redownload.
const ReorgMargin = 550

// CheckpointInterval is how often (in validated heights) FLUSH forces
// the UTXO store's write-ahead log to merge into the main store.
const CheckpointInterval = 10_000
