package model

// Deliverability is the verification service's judgment of whether mail can
// physically reach an address.
type Deliverability string

const (
	// DeliverabilityDeliverable indicates the address is deliverable as given.
	DeliverabilityDeliverable Deliverability = "deliverable"
	// DeliverabilityUnnecessaryUnit indicates a unit was given but not needed.
	DeliverabilityUnnecessaryUnit Deliverability = "deliverable_unnecessary_unit"
	// DeliverabilityIncorrectUnit indicates the unit number is wrong.
	DeliverabilityIncorrectUnit Deliverability = "deliverable_incorrect_unit"
	// DeliverabilityMissingUnit indicates a required unit number is missing.
	DeliverabilityMissingUnit Deliverability = "deliverable_missing_unit"
	// DeliverabilityUndeliverable indicates mail cannot reach the address.
	DeliverabilityUndeliverable Deliverability = "undeliverable"
)

// Acceptable reports whether the pipeline may proceed to fulfillment.
// Only fully deliverable classifications pass; unit problems and
// undeliverable addresses are hard policy rejections.
func (d Deliverability) Acceptable() bool {
	return d == DeliverabilityDeliverable || d == DeliverabilityUnnecessaryUnit
}

// VerificationResult is the normalized outcome of an address verification
// call. It is ephemeral and never persisted.
type VerificationResult struct {
	ID             string
	Deliverability Deliverability
	RecipientMoved bool

	// Corrected/normalized components returned by the verification service.
	// Fulfillment must use these, not the stored address.
	PrimaryLine   string
	SecondaryLine string
	City          string
	State         string
	ZipCode       string
}

// PostcardAddress is the wire shape the fulfillment API expects for the
// "to" and "from" blocks of a postcard order.
type PostcardAddress struct {
	Name         string `json:"name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	AddressCity  string `json:"address_city"`
	AddressState string `json:"address_state"`
	AddressZip   string `json:"address_zip"`
}

// PostcardRequest describes a print-and-mail order submission.
type PostcardRequest struct {
	To          PostcardAddress
	From        PostcardAddress
	Front       string
	Back        string
	Size        string
	Description string
	Metadata    map[string]string
}

// FulfillmentOrder is the external order handle returned by the mail
// provider. ID and URL are persisted onto the job as lob_id and
// lob_tracking_url.
type FulfillmentOrder struct {
	ID                   string
	URL                  string
	Carrier              string
	TrackingNumber       *string
	ExpectedDeliveryDate string
}
