package models

// All lists every persisted model in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&Seller{},
		&Customer{},
		&Product{},
		&ProductReview{},
		&Order{},
		&OrderLine{},
		&CustomPotteryRequest{},
		&Video{},
		&VideoLike{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
