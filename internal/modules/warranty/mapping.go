package warranty

// Raw lookup outcomes as reported by the Lookup adapter.
const (
	RawActive               = "active"
	RawInWarranty           = "in_warranty"
	RawExpired              = "expired"
	RawOutOfWarranty        = "out_of_warranty"
	RawRequiresVerification = "requires_verification"
	RawUnknown              = "unknown"
	RawNotApplicable        = "not_applicable"
)

// CanonicalStatus maps a raw lookup outcome to a Check status. This is the
// single mapping for the whole system; the verify and status paths both call
// it and nothing else compares raw status strings.
//
// "unknown" and "not_applicable" map to success on purpose: the check record
// captures what could be determined and nothing further is owed from the
// customer.
func CanonicalStatus(raw string) string {
	switch raw {
	case RawActive, RawInWarranty:
		return StatusSuccess
	case RawExpired, RawOutOfWarranty:
		return StatusFailed
	case RawRequiresVerification:
		return StatusManualRequired
	default:
		return StatusSuccess
	}
}
