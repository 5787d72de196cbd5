package court

// UpdatePriceRequest represents an hourly price change by the court owner
type UpdatePriceRequest struct {
	PricePerHour int64 `json:"pricePerHour" validate:"required,gte=1"`
}
