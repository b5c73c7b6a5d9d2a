package models

// Document statuses. Stored verbatim, including in storage paths.
const (
	StatusUnprocessed = "未処理"
	StatusProcessed   = "処理済み"
	StatusArchived    = "アーカイブ"
)

// Input methods describing how a document entered the system.
const (
	InputMethodCamera = "camera"
	InputMethodUpload = "upload"
	InputMethodEmail  = "email"
)

// Mail item statuses. pending is the only state that accepts transitions.
const (
	MailStatusPending  = "pending"
	MailStatusApproved = "approved"
	MailStatusRejected = "rejected"
)

// Built-in document types. These form the default taxonomy and are
// protected: they cannot be deleted or renamed.
const (
	TypeInvoice      = "請求書"
	TypeReceipt      = "領収書"
	TypeContract     = "契約書"
	TypeQuote        = "見積書"
	TypeDeliveryNote = "納品書"
	TypeOther        = "その他"
)

// DefaultTypeNames lists the built-in taxonomy in display order.
var DefaultTypeNames = []string{
	TypeInvoice,
	TypeReceipt,
	TypeContract,
	TypeQuote,
	TypeDeliveryNote,
	TypeOther,
}

// ValidStatus reports whether s is a known document status.
func ValidStatus(s string) bool {
	switch s {
	case StatusUnprocessed, StatusProcessed, StatusArchived:
		return true
	}
	return false
}

// ValidInputMethod reports whether m is a known input method.
func ValidInputMethod(m string) bool {
	switch m {
	case InputMethodCamera, InputMethodUpload, InputMethodEmail:
		return true
	}
	return false
}
