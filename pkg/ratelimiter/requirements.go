package ratelimiter

// CallReserveInput captures the fields needed to build limit requirements
// for one outbound call against a service target.
type CallReserveInput struct {
	LeaseID         string
	JobID           string
	Service         string
	Target          string
	Payload         string
	MaxOutputTokens uint64
}

// EstimatePayloadTokens returns a conservative token estimate for a payload.
// Byte count over-reserves, which is the safe direction; Complete reconciles
// with the actual count.
func EstimatePayloadTokens(payload string) uint64 {
	return uint64(len([]byte(payload)))
}

// BuildCallRequirements builds limit requirements for an outbound call.
func BuildCallRequirements(in CallReserveInput) []Requirement {
	upper := EstimatePayloadTokens(in.Payload) + in.MaxOutputTokens
	return []Requirement{
		{Key: LimitKey(buildRPMKey(in.Service, in.Target)), Amount: 1},
		{Key: LimitKey(buildTPMKey(in.Service, in.Target)), Amount: upper},
		{Key: LimitKey(buildConcurrencyKey(in.Service, in.Target)), Amount: 1},
	}
}
