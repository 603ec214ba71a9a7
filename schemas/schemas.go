package schemas

const (
	// MemoTypeV1 tags memos carrying a Transparence proof payload.
	MemoTypeV1 string = "TRANSPARENCE_V1"

	ProofVersion int = 1
)

const (
	TransactionTypePayment string = "Payment"
)

const (
	EventEvidenceCreated string = "evidence.created"
	EventJournalLoaded   string = "journal.loaded"
)

const (
	ChannelEvidence string = "transparence:evidence"
)
